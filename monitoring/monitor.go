// Package monitoring serves the live state of wear-leveled devices over HTTP
// while a simulation runs.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/pkg/browser"
	"github.com/sarchlab/startgap/mem/startgap"
	"github.com/sarchlab/startgap/sim"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// A Device is a component the monitor can report on.
type Device interface {
	Name() string
	GetSnapshot() startgap.StatsSnapshot
}

// Monitor turns a simulation into a server that exposes device statistics,
// progress, and resource usage.
type Monitor struct {
	engine     sim.Engine
	portNumber int

	devicesLock sync.RWMutex
	devices     []Device

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	profileDuration time.Duration
	listener        net.Listener
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		profileDuration: time.Second,
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.engine = e
}

// RegisterDevice adds a device to be monitored.
func (m *Monitor) RegisterDevice(d Device) {
	m.devicesLock.Lock()
	defer m.devicesLock.Unlock()

	m.devices = append(m.devices, d)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the progress list.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/devices", m.listDevices)
	r.HandleFunc("/api/snapshot/{name}", m.deviceSnapshot)
	r.HandleFunc("/api/device/{name}", m.deviceDetails)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server and returns the address it
// listens on. Settings in a .env file are loaded first. When
// STARTGAP_MONITOR_BROWSER is true, the address is opened in a browser.
func (m *Monitor) StartServer() string {
	_ = godotenv.Load()

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.listener = listener

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	router := m.router()
	go func() {
		err := http.Serve(listener, router)
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Panic(err)
		}
	}()

	if openBrowser, _ := strconv.ParseBool(
		os.Getenv("STARTGAP_MONITOR_BROWSER")); openBrowser {
		err = browser.OpenURL(url)
		if err != nil {
			log.Printf("cannot open browser: %v", err)
		}
	}

	return url
}

// StopServer closes the listener opened by StartServer.
func (m *Monitor) StopServer() error {
	if m.listener == nil {
		return nil
	}

	return m.listener.Close()
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	var now sim.VTimeInSec
	if m.engine != nil {
		now = m.engine.CurrentTime()
	}

	fmt.Fprintf(w, "{\"now\":%.10f}", now)
}

func (m *Monitor) listDevices(w http.ResponseWriter, _ *http.Request) {
	m.devicesLock.RLock()
	names := make([]string, 0, len(m.devices))
	for _, d := range m.devices {
		names = append(names, d.Name())
	}
	m.devicesLock.RUnlock()

	sort.Strings(names)

	writeJSON(w, names)
}

type snapshotRsp struct {
	Name string                 `json:"name"`
	Time float64                `json:"time"`
	Data startgap.StatsSnapshot `json:"data"`
}

func (m *Monitor) deviceSnapshot(w http.ResponseWriter, r *http.Request) {
	d := m.findDeviceOr404(w, mux.Vars(r)["name"])
	if d == nil {
		return
	}

	rsp := snapshotRsp{
		Name: d.Name(),
		Data: d.GetSnapshot(),
	}
	if m.engine != nil {
		rsp.Time = float64(m.engine.CurrentTime())
	}

	writeJSON(w, rsp)
}

func (m *Monitor) deviceDetails(w http.ResponseWriter, r *http.Request) {
	d := m.findDeviceOr404(w, mux.Vars(r)["name"])
	if d == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(d)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) findDeviceOr404(w http.ResponseWriter, name string) Device {
	m.devicesLock.RLock()
	defer m.devicesLock.RUnlock()

	for _, d := range m.devices {
		if d.Name() == name {
			return d
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Device not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]ProgressBarState, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.State())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
