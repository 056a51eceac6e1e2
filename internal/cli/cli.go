package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mstanoev/agentcoord/internal/http"
	"github.com/mstanoev/agentcoord/internal/log"
	internal_state "github.com/mstanoev/agentcoord/internal/state"
	"github.com/mstanoev/agentcoord/pkg/coordinator"
	"github.com/mstanoev/agentcoord/pkg/state"
	"github.com/spf13/cobra"
)

const defaultStateFile = ".agentcoord/workflow_state.json"

func SetupCLI(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("state", defaultStateFile, "Path to the JSON state file")
	rootCmd.PersistentFlags().String("db", "", "Postgres connection string for the state backend (falls back to DB_* env vars; overrides --state)")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for the state backend (overrides --state)")

	runCmd := &cobra.Command{
		Use:   "run [definition.json]",
		Short: "Execute a workflow definition file and print its results",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading definition file: %v\n", err)
				os.Exit(1)
			}
			var def coordinator.WorkflowDefinition
			if err := json.Unmarshal(data, &def); err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing definition file: %v\n", err)
				os.Exit(1)
			}
			coord := initCoordinator(cmd)
			echoAgents, _ := cmd.Flags().GetString("echo-agents")
			if echoAgents == "" {
				// Development default: back every agent type the definition
				// references with an echo agent.
				for _, td := range def.Tasks {
					registerEchoAgent(coord, td.AgentType)
				}
			} else {
				for _, agentType := range strings.Split(echoAgents, ",") {
					if agentType = strings.TrimSpace(agentType); agentType != "" {
						registerEchoAgent(coord, agentType)
					}
				}
			}
			results, err := coord.CoordinateWorkflow(cmd.Context(), def)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: workflow execution failed: %v\n", err)
				os.Exit(1)
			}
			printResults(results)
		},
	}
	runCmd.Flags().String("echo-agents", "", "Comma-separated agent types to back with a trivial echo agent (default: every type in the definition)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all workflows",
		Run: func(cmd *cobra.Command, args []string) {
			coord := initCoordinator(cmd)
			listWorkflows(coord)
		},
	}

	resultsCmd := &cobra.Command{
		Use:   "results [workflow-id]",
		Short: "Show the results of a workflow",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			coord := initCoordinator(cmd)
			showResults(coord, args[0])
		},
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup [max-age-seconds]",
		Short: "Remove completed workflows older than the given age",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			maxAge, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing max-age-seconds: %v\n", err)
				os.Exit(1)
			}
			coord := initCoordinator(cmd)
			count := coord.CleanupCompletedWorkflows(time.Duration(maxAge) * time.Second)
			fmt.Fprintf(os.Stdout, "Removed %d workflows\n", count)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			port, _ := cmd.Flags().GetString("port")
			echoAgents, _ := cmd.Flags().GetString("echo-agents")
			coord := initCoordinator(cmd)
			for _, agentType := range strings.Split(echoAgents, ",") {
				agentType = strings.TrimSpace(agentType)
				if agentType == "" {
					continue
				}
				registerEchoAgent(coord, agentType)
			}
			if err := http.StartServer(port, coord); err != nil {
				log.GetLogger().Errorf("Server failed: %v", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().String("port", "8080", "Port to listen on")
	serveCmd.Flags().String("echo-agents", "", "Comma-separated agent types to back with a trivial echo agent (for development)")

	rootCmd.AddCommand(runCmd, listCmd, resultsCmd, cleanupCmd, serveCmd)
}

func listWorkflows(coord *coordinator.Coordinator) {
	workflows := coord.ListWorkflows()
	if len(workflows) == 0 {
		fmt.Fprintf(os.Stdout, "No workflows found.\n")
		return
	}
	fmt.Fprintf(os.Stdout, "Workflows:\n")
	for _, wf := range workflows {
		fmt.Fprintf(os.Stdout, "- ID: %s, Name: %s, Status: %s, Created: %s\n",
			wf.ID, wf.Name, wf.Status, wf.CreatedAt.Format(time.RFC3339))
	}
}

func showResults(coord *coordinator.Coordinator, workflowID string) {
	results, err := coord.GetWorkflowResults(workflowID)
	if err != nil {
		log.GetLogger().Errorf("Failed to get workflow results: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to get workflow results: %v\n", err)
		os.Exit(1)
	}
	printResults(results)
}

func printResults(results *coordinator.WorkflowResults) {
	fmt.Fprintf(os.Stdout, "Workflow %s: %s\n", results.WorkflowID, results.Status)
	for id, task := range results.Tasks {
		line := fmt.Sprintf("- Task %s: %s", id, task.Status)
		if task.Error != "" {
			line += fmt.Sprintf(" (error: %s)", task.Error)
		}
		if task.Duration != nil {
			line += fmt.Sprintf(" [%s]", task.Duration)
		}
		fmt.Fprintln(os.Stdout, line)
	}
}

func registerEchoAgent(coord *coordinator.Coordinator, agentType string) {
	coord.RegisterAgent(agentType, coordinator.AgentFunc(
		func(ctx context.Context, payload coordinator.TaskPayload) (coordinator.TaskResult, error) {
			return fmt.Sprintf("%s: %s", agentType, payload.Content), nil
		}))
}

// initCoordinator builds a coordinator over the state backend selected by
// flags: Postgres, Redis, or the default JSON file.
func initCoordinator(cmd *cobra.Command) *coordinator.Coordinator {
	stateStore := initStateStore(cmd)
	return coordinator.NewCoordinator(coordinator.DefaultConfig(), stateStore, log.GetLogger())
}

func initStateStore(cmd *cobra.Command) state.StateStore {
	flagVal, _ := cmd.Flags().GetString("db")
	if connStr := DatabaseConnStr(flagVal); connStr != "" {
		store, err := internal_state.NewPostgresStore(connStr)
		if err != nil {
			log.GetLogger().Errorf("Failed to initialize Postgres state store: %v", err)
			os.Exit(1)
		}
		return store
	}
	if addr, _ := cmd.Flags().GetString("redis"); addr != "" {
		return internal_state.NewRedisStore(addr)
	}
	path, _ := cmd.Flags().GetString("state")
	return state.NewFileStore(path)
}

// DatabaseConnStr resolves the Postgres connection string for the state
// backend. An explicit value wins; otherwise the DB_* environment variables
// are assembled into one. Returns "" when neither source is set, which
// callers treat as "no Postgres backend configured".
func DatabaseConnStr(explicit string) string {
	if explicit != "" {
		return explicit
	}
	username := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if username == "" || password == "" || host == "" || port == "" || name == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		username, password, host, port, name)
}
