package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mstanoev/agentcoord/internal/log"
	"github.com/mstanoev/agentcoord/pkg/coordinator"
	"github.com/pkg/errors"
)

// NewHandler wires the coordinator's operations onto an http.ServeMux.
func NewHandler(coord *coordinator.Coordinator) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/workflows", workflowsHandler(coord))
	mux.HandleFunc("/workflows/", workflowResultsHandler(coord))
	return mux
}

func StartServer(port string, coord *coordinator.Coordinator) error {
	log.GetLogger().Infof("Starting agentcoord server on :%s", port)
	return http.ListenAndServe(":"+port, NewHandler(coord))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "agentcoord server is running")
}

func workflowsHandler(coord *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listWorkflowsHTTP(w, coord)
		case http.MethodPost:
			coordinateWorkflowHTTP(w, r, coord)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// coordinateWorkflowHTTP accepts a JSON workflow definition, executes it and
// responds with the results. Agents must already be registered by the host.
func coordinateWorkflowHTTP(w http.ResponseWriter, r *http.Request, coord *coordinator.Coordinator) {
	var def coordinator.WorkflowDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		log.GetLogger().Errorf("Invalid workflow definition: %v", err)
		http.Error(w, fmt.Sprintf("Invalid workflow definition: %v", err), http.StatusBadRequest)
		return
	}
	results, err := coord.CoordinateWorkflow(r.Context(), def)
	if err != nil {
		log.GetLogger().Errorf("Failed to coordinate workflow: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, coordinator.ErrDuplicateWorkflow) || errors.Is(err, coordinator.ErrUnknownDependency) {
			status = http.StatusBadRequest
		}
		http.Error(w, fmt.Sprintf("Failed to coordinate workflow: %v", err), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		log.GetLogger().Errorf("Failed to encode results: %v", err)
	}
}

func listWorkflowsHTTP(w http.ResponseWriter, coord *coordinator.Coordinator) {
	workflows := coord.ListWorkflows()
	if len(workflows) == 0 {
		fmt.Fprintf(w, "No workflows found.\n")
		return
	}
	for _, wf := range workflows {
		fmt.Fprintf(w, "- ID: %s, Name: %s, Status: %s, Created: %s\n",
			wf.ID, wf.Name, wf.Status, wf.CreatedAt.Format(time.RFC3339))
	}
}

// workflowResultsHandler serves GET /workflows/{id}/results.
func workflowResultsHandler(coord *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/workflows/")
		id := strings.TrimSuffix(path, "/results")
		if id == "" || id == path {
			http.NotFound(w, r)
			return
		}
		results, err := coord.GetWorkflowResults(id)
		if err != nil {
			if errors.Is(err, coordinator.ErrWorkflowNotFound) {
				http.Error(w, fmt.Sprintf("Workflow %q not found", id), http.StatusNotFound)
				return
			}
			log.GetLogger().Errorf("Failed to get results for %s: %v", id, err)
			http.Error(w, fmt.Sprintf("Failed to get results: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(results); err != nil {
			log.GetLogger().Errorf("Failed to encode results: %v", err)
		}
	}
}
