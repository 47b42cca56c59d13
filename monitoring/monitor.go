// Package monitoring serves estimations and the state of long-running jobs
// over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/sarchlab/noclat/datarecording"
	"github.com/sarchlab/noclat/estimator"
	"github.com/sarchlab/noclat/hooking"
	"github.com/sarchlab/noclat/id"
	"github.com/sarchlab/noclat/monitoring/web"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
	"github.com/syifan/goseth"
)

// Monitor turns an estimator into a server. It also keeps track of the
// progress of long-running jobs such as mapping.
type Monitor struct {
	estimator   *estimator.Estimator
	recorder    *datarecording.LatencyRecorder
	idGenerator id.Generator
	logger      logrus.FieldLogger
	portNumber  int
	maxResults  int
	assetDir    string

	resultsLock sync.Mutex
	results     []*estimator.Result

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		idGenerator: id.NewSequential("bar-"),
		logger:      logrus.StandardLogger(),
		maxResults:  100,
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.Warnf("Port number %d is not allowed for the monitoring "+
			"server, using a random port instead.", portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithLogger sets the logger.
func (m *Monitor) WithLogger(logger logrus.FieldLogger) *Monitor {
	m.logger = logger
	return m
}

// WithIDGenerator sets the generator of progress bar IDs.
func (m *Monitor) WithIDGenerator(g id.Generator) *Monitor {
	m.idGenerator = g
	return m
}

// WithMaxResults sets how many of the latest results are kept in memory.
func (m *Monitor) WithMaxResults(n int) *Monitor {
	m.maxResults = n
	return m
}

// WithAssetDir serves the dashboard from a directory instead of the files
// built into the binary.
func (m *Monitor) WithAssetDir(dir string) *Monitor {
	m.assetDir = dir
	return m
}

// WithRecorder stores every result that the monitor receives.
func (m *Monitor) WithRecorder(r *datarecording.LatencyRecorder) *Monitor {
	m.recorder = r
	return m
}

// RegisterEstimator sets the estimator that serves estimation requests. The
// results of the estimator are kept by the monitor.
func (m *Monitor) RegisterEstimator(e *estimator.Estimator) {
	m.estimator = e
	e.AcceptHook(m)
}

// Func keeps the result of an estimation.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	if ctx.Pos != estimator.HookPosEstimated {
		return
	}

	result := ctx.Item.(*estimator.Result)

	m.resultsLock.Lock()
	m.results = append(m.results, result)
	if m.maxResults > 0 && len(m.results) > m.maxResults {
		m.results = m.results[len(m.results)-m.maxResults:]
	}
	m.resultsLock.Unlock()

	if m.recorder != nil {
		m.recorder.Record(result)
	}
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		id:        m.idGenerator.Generate(),
		name:      name,
		startTime: time.Now(),
		total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
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

// Router returns the handler of all the routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/estimate", m.estimate).Methods(http.MethodPost)
	r.HandleFunc("/api/estimations", m.listEstimations).Methods(http.MethodGet)
	r.HandleFunc("/api/estimation/{id}", m.estimationDetails).
		Methods(http.MethodGet)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(http.FileServer(web.Assets(m.assetDir)))

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", m.portNumber))
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.logger.Infof("Monitoring estimations with %s", url)

	go func() {
		err := http.Serve(listener, m.Router())
		if err != nil {
			m.logger.WithError(err).Error("monitoring server stopped")
		}
	}()

	return url, nil
}

// EstimateRequest is the body of an estimation request. Missing fields take
// their default values.
type EstimateRequest struct {
	Arch estimator.ArchConfig `json:"arch"`
	Task estimator.TaskConfig `json:"task"`
}

type errorRsp struct {
	Error string `json:"error"`
}

func (m *Monitor) estimate(w http.ResponseWriter, r *http.Request) {
	if m.estimator == nil {
		m.writeJSON(w, http.StatusServiceUnavailable,
			errorRsp{"no estimator registered"})

		return
	}

	req := EstimateRequest{
		Arch: estimator.DefaultArchConfig(),
		Task: estimator.DefaultTaskConfig(),
	}

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		m.writeJSON(w, http.StatusBadRequest, errorRsp{err.Error()})
		return
	}

	result, err := m.estimator.Estimate(req.Arch, req.Task)

	switch {
	case errors.Is(err, estimator.ErrInvalidConfig):
		m.writeJSON(w, http.StatusBadRequest, errorRsp{err.Error()})
	case errors.Is(err, estimator.ErrNumericalInstability):
		m.writeJSON(w, http.StatusUnprocessableEntity, errorRsp{err.Error()})
	case err != nil:
		m.writeJSON(w, http.StatusInternalServerError, errorRsp{err.Error()})
	default:
		m.writeJSON(w, http.StatusOK, result)
	}
}

// EstimationSummary describes a result kept by the monitor.
type EstimationSummary struct {
	ID          string  `json:"id"`
	NumRequests int     `json:"num_requests"`
	MaxLatency  float64 `json:"max_latency"`
	MeanLatency float64 `json:"mean_latency"`
}

func (m *Monitor) listEstimations(w http.ResponseWriter, _ *http.Request) {
	m.resultsLock.Lock()
	summaries := make([]EstimationSummary, 0, len(m.results))
	for _, r := range m.results {
		summaries = append(summaries, EstimationSummary{
			ID:          r.ID,
			NumRequests: len(r.Latencies),
			MaxLatency:  r.Max(),
			MeanLatency: r.Mean(),
		})
	}
	m.resultsLock.Unlock()

	m.writeJSON(w, http.StatusOK, summaries)
}

func (m *Monitor) findResult(estimationID string) *estimator.Result {
	m.resultsLock.Lock()
	defer m.resultsLock.Unlock()

	for _, r := range m.results {
		if r.ID == estimationID {
			return r
		}
	}

	return nil
}

func (m *Monitor) estimationDetails(w http.ResponseWriter, r *http.Request) {
	estimationID := mux.Vars(r)["id"]

	result := m.findResult(estimationID)
	if result == nil {
		m.writeJSON(w, http.StatusNotFound, errorRsp{"estimation not found"})
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(result)
	serializer.SetMaxDepth(2)

	w.Header().Set("Content-Type", "application/json")

	err := serializer.Serialize(w)
	m.logOnErr(err)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	statuses := make([]ProgressStatus, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		statuses = append(statuses, b.Status())
	}
	m.progressBarsLock.Unlock()

	m.writeJSON(w, http.StatusOK, statuses)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	rsp, err := currentResources()
	if err != nil {
		m.writeJSON(w, http.StatusInternalServerError, errorRsp{err.Error()})
		return
	}

	m.writeJSON(w, http.StatusOK, rsp)
}

func currentResources() (resourceRsp, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return resourceRsp{}, err
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		return resourceRsp{}, err
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		return resourceRsp{}, err
	}

	return resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	}, nil
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		m.writeJSON(w, http.StatusConflict, errorRsp{err.Error()})
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.writeJSON(w, http.StatusInternalServerError, errorRsp{err.Error()})
		return
	}

	m.writeJSON(w, http.StatusOK, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, status int, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		m.logOnErr(err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, err = w.Write(bytes)
	m.logOnErr(err)
}

func (m *Monitor) logOnErr(err error) {
	if err != nil {
		m.logger.WithError(err).Warn("monitoring response failed")
	}
}
