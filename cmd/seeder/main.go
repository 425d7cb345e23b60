package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
)

const defaultPassword = "seedpassword123"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "seed":
		seedCmd(apiURL, args)
	case "isolation":
		isolationCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Task Seeder - Development tool for populating and probing the task API

USAGE:
  seeder <command> [options]

COMMANDS:
  seed       Register users and give each of them a handful of tasks
  isolation  Check that one user cannot read, change or delete another user's task
  help       Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Create 3 users with 5 tasks each
  seeder seed

  # Create 10 users with 20 tasks each
  seeder seed --users=10 --tasks=20

  # Verify per-user isolation against a running server
  seeder isolation`)
}

var (
	priorities = []string{"low", "medium", "high"}
	statuses   = []string{"pending", "in_progress", "completed"}
	tagSets    = [][]string{{"work"}, {"home"}, {"work", "urgent"}, {"errand"}, nil}
)

func seedCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	users := fs.Int("users", 3, "Number of users to register")
	tasks := fs.Int("tasks", 5, "Number of tasks per user")
	password := fs.String("password", defaultPassword, "Password for every seeded user")
	fs.Parse(args)

	if *users < 1 || *tasks < 0 {
		fmt.Println("Error: --users must be at least 1 and --tasks cannot be negative")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Println("=== Task Seeder: Seed ===")
	fmt.Println()

	for i := 0; i < *users; i++ {
		fmt.Printf("Registering user %d... ", i+1)
		user, token, err := client.RegisterUser("seed", *password)
		if err != nil {
			fmt.Printf("FAILED\n  Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("OK (user: %s)\n", user.Username)

		for j := 0; j < *tasks; j++ {
			title := fmt.Sprintf("%s task #%d", user.Username, j+1)
			task, err := client.CreateTask(token, title, priorities[j%len(priorities)], tagSets[j%len(tagSets)])
			if err != nil {
				fmt.Printf("  Failed: %v\n", err)
				continue
			}

			if status := statuses[j%len(statuses)]; status != "pending" {
				if err := client.UpdateTaskStatus(token, task.ID, status); err != nil {
					fmt.Printf("  Failed to set status on %s: %v\n", task.ID, err)
				}
			}
		}
		fmt.Printf("  Created %d tasks\n", *tasks)
	}

	fmt.Println()
	fmt.Printf("Done. Log in with any seeded username and password %q.\n", *password)
}

func isolationCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("isolation", flag.ExitOnError)
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	fmt.Println("=== Task Seeder: Isolation Check ===")
	fmt.Println()

	owner, ownerToken, err := client.RegisterUser("owner", defaultPassword)
	if err != nil {
		fmt.Printf("Failed to register owner: %v\n", err)
		os.Exit(1)
	}
	intruder, intruderToken, err := client.RegisterUser("intruder", defaultPassword)
	if err != nil {
		fmt.Printf("Failed to register intruder: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Owner: %s, intruder: %s\n", owner.Username, intruder.Username)

	task, err := client.CreateTask(ownerToken, "private task", "high", []string{"secret"})
	if err != nil {
		fmt.Printf("Failed to create task: %v\n", err)
		os.Exit(1)
	}

	checks := []struct {
		name string
		run  func() error
	}{
		{"read", func() error { _, err := client.GetTask(intruderToken, task.ID); return err }},
		{"status change", func() error { return client.UpdateTaskStatus(intruderToken, task.ID, "completed") }},
		{"delete", func() error { return client.DeleteTask(intruderToken, task.ID) }},
	}

	failed := false
	for _, check := range checks {
		fmt.Printf("Intruder %s... ", check.name)
		if expectNotFound(check.run()) {
			fmt.Println("OK (404)")
		} else {
			fmt.Println("FAILED")
			failed = true
		}
	}

	fmt.Print("Owner still sees task unchanged... ")
	got, err := client.GetTask(ownerToken, task.ID)
	if err != nil || got.Status != "pending" {
		fmt.Printf("FAILED (%v)\n", err)
		failed = true
	} else {
		fmt.Println("OK")
	}

	if err := client.DeleteTask(ownerToken, task.ID); err != nil {
		fmt.Printf("Warning: cleanup failed: %v\n", err)
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println()
	fmt.Println("Isolation holds.")
}

func expectNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		if err != nil {
			fmt.Printf("\n  Error: %v\n  ", err)
		}
		return false
	}
	return apiErr.Status == http.StatusNotFound
}
