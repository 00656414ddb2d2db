package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "escrow-cli",
		Short: "Escrow engine CLI tool",
		Long:  `A command line interface for interacting with the escrow engine API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the escrow engine API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	verifyCmd := &cobra.Command{
		Use:   "verify <project-id>",
		Short: "Replay a project's ledger and check it against the held balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			verifyLedger(args[0])
		},
	}

	balanceCmd := &cobra.Command{
		Use:   "balance <project-id>",
		Short: "Show a project's escrow position",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			showBalance(args[0])
		},
	}

	ledgerCmd.AddCommand(verifyCmd)
	ledgerCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(ledgerCmd)

	// Payout commands
	payoutCmd := &cobra.Command{
		Use:   "payout",
		Short: "Payout operations",
	}

	showCmd := &cobra.Command{
		Use:   "show <payout-request-id>",
		Short: "Show a payout request",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			showPayout(args[0])
		},
	}

	payoutCmd.AddCommand(showCmd)
	rootCmd.AddCommand(payoutCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func getJSON(path string) map[string]any {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}
	return result
}

func verifyLedger(projectID string) {
	result := getJSON("/api/v1/projects/" + projectID + "/ledger/verify")

	if consistent, ok := result["consistent"].(bool); ok && consistent {
		fmt.Printf("Ledger verification PASSED\n")
	} else {
		fmt.Printf("Ledger verification FAILED\n")
		if fault, ok := result["fault"].(string); ok && fault != "" {
			fmt.Printf("Fault: %s\n", fault)
		}
	}
	fmt.Printf("Entries: %v\n", result["entry_count"])
	fmt.Printf("Replayed balance: %v\n", result["replayed_balance"])
	fmt.Printf("Held balance: %v\n", result["held_balance"])
}

func showBalance(projectID string) {
	result := getJSON("/api/v1/projects/" + projectID + "/balance")

	fmt.Printf("Project: %v\n", result["project_id"])
	fmt.Printf("State: %v\n", result["state"])
	fmt.Printf("Held balance: %v\n", result["held_balance"])
	fmt.Printf("Released total: %v\n", result["released_total"])
}

func showPayout(requestID string) {
	result := getJSON("/api/v1/payouts/" + requestID)

	fmt.Printf("Payout request: %v\n", result["id"])
	fmt.Printf("Beneficiary: %v\n", result["beneficiary_id"])
	fmt.Printf("Destination: %v\n", result["destination"])
	fmt.Printf("Status: %v\n", result["status"])
	fmt.Printf("Amount: %v\n", result["amount"])
}
