// Package demoserver is a stand-in inference service for local runs. It
// answers the detector client's health, faces and objects endpoints with a
// canned scenario that can be switched on the fly from a control panel.
package demoserver

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"sync"

	"github.com/raysh454/proctor/internal/detector"
	"github.com/raysh454/proctor/internal/logging"
)

// DemoServer serves the current scenario's frame to every detection call.
type DemoServer struct {
	cfg       Config
	logger    logging.Logger
	scenarios map[string]Scenario
	current   string
	mu        sync.RWMutex
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config, logger logging.Logger) *DemoServer {
	if logger == nil {
		logger = logging.Nop{}
	}
	scenarios := make(map[string]Scenario)
	for _, sc := range GetAllScenarios() {
		scenarios[sc.Name] = sc
	}
	if _, ok := scenarios[cfg.InitialScenario]; !ok {
		cfg.InitialScenario = ScenarioFocused
	}
	return &DemoServer{
		cfg:       cfg,
		logger:    logger,
		scenarios: scenarios,
		current:   cfg.InitialScenario,
	}
}

// Handler returns the routes of the demo service.
func (s *DemoServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// Detector endpoints, shaped like detector.HTTPClient expects.
	def := detector.DefaultConfig()
	mux.HandleFunc(def.HealthPath, s.healthHandler)
	mux.HandleFunc(def.FacesPath, s.facesHandler)
	mux.HandleFunc(def.ObjectsPath, s.objectsHandler)

	// Control panel for scenario switching
	mux.HandleFunc("/demo/control", s.controlPanelHandler)
	mux.HandleFunc("/demo/set-scenario", s.setScenarioHandler)
	mux.HandleFunc("/demo/get-scenarios", s.getScenariosHandler)
	mux.HandleFunc("/demo/reset", s.resetHandler)
	return mux
}

// Start listens on the configured port.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("demo inference service starting",
		logging.Field{Key: "addr", Value: addr},
		logging.Field{Key: "control_panel", Value: fmt.Sprintf("http://localhost%s/demo/control", addr)})
	return http.ListenAndServe(addr, s.Handler())
}

// Current returns the active scenario name.
func (s *DemoServer) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetScenario switches the served scenario.
func (s *DemoServer) SetScenario(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scenarios[name]; !ok {
		return fmt.Errorf("unknown scenario %q", name)
	}
	if s.current != name {
		s.logger.Info("scenario switched", logging.Field{Key: "from", Value: s.current}, logging.Field{Key: "to", Value: name})
	}
	s.current = name
	return nil
}

func (s *DemoServer) frame() detector.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scenarios[s.current].Frame
}

func (s *DemoServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "scenario": s.Current()})
}

func (s *DemoServer) facesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"faces": nonNil(s.frame().Faces)})
}

func (s *DemoServer) objectsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"detections": nonNil(s.frame().Objects)})
}

// controlPanelHandler serves the control panel for scenario switching.
func (s *DemoServer) controlPanelHandler(w http.ResponseWriter, r *http.Request) {
	tmpl := template.Must(template.New("control").Parse(controlPanelHTML))
	data := struct {
		Scenarios []Scenario
		Current   string
	}{
		Scenarios: GetAllScenarios(),
		Current:   s.Current(),
	}
	w.Header().Set("Content-Type", "text/html")
	_ = tmpl.Execute(w, data)
}

// setScenarioHandler switches the active scenario.
func (s *DemoServer) setScenarioHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.FormValue("scenario")
	if err := s.SetScenario(name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]any{
		"success":  true,
		"scenario": name,
	})
}

// getScenariosHandler lists the scenarios and marks the active one.
func (s *DemoServer) getScenariosHandler(w http.ResponseWriter, r *http.Request) {
	type ScenarioInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Active      bool   `json:"active"`
	}

	current := s.Current()
	var out []ScenarioInfo
	for _, sc := range s.scenarios {
		out = append(out, ScenarioInfo{Name: sc.Name, Description: sc.Description, Active: sc.Name == current})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, out)
}

// resetHandler goes back to the initial scenario.
func (s *DemoServer) resetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_ = s.SetScenario(s.cfg.InitialScenario)
	writeJSON(w, map[string]any{
		"success":  true,
		"scenario": s.cfg.InitialScenario,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

const controlPanelHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Demo Inference Service</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; max-width: 900px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        h1 { color: #333; border-bottom: 2px solid #007bff; padding-bottom: 10px; }
        .card { background: white; border-radius: 8px; padding: 16px 20px; margin: 12px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); display: flex; justify-content: space-between; align-items: center; }
        .name { font-weight: bold; color: #007bff; }
        .desc { color: #666; margin-top: 4px; }
        button { padding: 8px 16px; border: none; border-radius: 4px; cursor: pointer; }
        button.active { background: #28a745; color: white; }
        button.inactive { background: #e9ecef; color: #333; }
        .info-box { background: #e7f3ff; padding: 15px; border-radius: 8px; margin-bottom: 20px; border-left: 4px solid #007bff; }
    </style>
</head>
<body>
    <h1>Demo Inference Service</h1>
    <div class="info-box">
        <strong>How to use:</strong> start proctord against this service, begin a session, then switch
        scenarios to watch counters and the event log react.
    </div>
    {{range .Scenarios}}
    <div class="card">
        <div>
            <div class="name">{{.Name}}</div>
            <div class="desc">{{.Description}}</div>
        </div>
        <button class="{{if eq $.Current .Name}}active{{else}}inactive{{end}}" onclick="setScenario('{{.Name}}')">
            {{if eq $.Current .Name}}Active{{else}}Activate{{end}}
        </button>
    </div>
    {{end}}
    <script>
        function setScenario(name) {
            fetch('/demo/set-scenario', {
                method: 'POST',
                headers: {'Content-Type': 'application/x-www-form-urlencoded'},
                body: 'scenario=' + encodeURIComponent(name)
            }).then(() => location.reload());
        }
    </script>
</body>
</html>`
