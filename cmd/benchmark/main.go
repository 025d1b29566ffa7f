// Benchmark tool for testing Kingfisher against labeled UPI fraud data.
//
// Usage:
//   go run cmd/benchmark/main.go -csv /path/to/upi_transactions.csv -url http://localhost:8080
//
// This tool:
//   1. Reads labeled UPI transaction data
//   2. Sends each transaction to Kingfisher for assessment
//   3. Compares the decision (non-APPROVE = flagged) with actual fraud labels
//   4. Calculates precision, recall, F1-score, and confusion matrix
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openupi/kingfisher/internal/dataset"
	"github.com/openupi/kingfisher/internal/domain"
)

// AssessRequest mirrors the POST /assess request body.
type AssessRequest struct {
	Amount    float64 `json:"amount"`
	Type      string  `json:"type"`
	Category  string  `json:"category,omitempty"`
	Status    string  `json:"status,omitempty"`
	AgeGroup  string  `json:"ageGroup,omitempty"`
	State     string  `json:"state,omitempty"`
	Bank      string  `json:"bank,omitempty"`
	Device    string  `json:"device,omitempty"`
	Network   string  `json:"network,omitempty"`
	HourOfDay *int    `json:"hourOfDay,omitempty"`
}

// AssessResponse mirrors the POST /assess response body.
type AssessResponse struct {
	AssessmentID  string   `json:"assessmentId"`
	Decision      string   `json:"decision"`
	FinalRisk     float64  `json:"finalRisk"`
	MLProbability float64  `json:"mlProbability"`
	Signals       []string `json:"signals"`
}

// Metrics tracks benchmark results
type Metrics struct {
	TruePositives  int64 // Fraud flagged
	FalsePositives int64 // Non-fraud flagged
	TrueNegatives  int64 // Non-fraud approved
	FalseNegatives int64 // Fraud approved (missed fraud!)

	TotalProcessed int64
	TotalFraud     int64
	TotalNonFraud  int64
	TotalErrors    int64

	ProcessingTimeMs int64
}

func main() {
	csvPath := flag.String("csv", "", "Path to labeled UPI CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Kingfisher base URL")
	limit := flag.Int("limit", 10000, "Maximum transactions to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	verbose := flag.Bool("verbose", false, "Print each transaction result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/upi_transactions.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║        KINGFISHER BENCHMARK - UPI Fraud Detection             ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nCSV File:        %s\n", *csvPath)
	fmt.Printf("Kingfisher URL:  %s\n", *baseURL)
	fmt.Printf("Workers:         %d\n", *workers)
	fmt.Printf("Limit:           %d\n", *limit)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Kingfisher not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Kingfisher is running:")
		fmt.Println("  go run cmd/kingfisher/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Kingfisher is healthy")

	fmt.Printf("\nReading transactions from %s...\n", *csvPath)
	transactions, err := readTransactions(*csvPath, *limit)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Loaded %d labeled transactions\n", len(transactions))

	fraudCount := 0
	for _, tx := range transactions {
		if tx.FraudFlag == 1 {
			fraudCount++
		}
	}
	fmt.Printf("  - Fraud:     %d (%.2f%%)\n", fraudCount, 100*float64(fraudCount)/float64(len(transactions)))
	fmt.Printf("  - Non-fraud: %d (%.2f%%)\n", len(transactions)-fraudCount, 100*float64(len(transactions)-fraudCount)/float64(len(transactions)))

	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(transactions, *baseURL, *workers, *verbose)
	duration := time.Since(startTime)

	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// readTransactions loads labeled rows through the dataset layer so the
// benchmark accepts the same files as cmd/train.
func readTransactions(path string, limit int) ([]domain.Transaction, error) {
	src := dataset.NewCSVSource(path)
	defer src.Close()

	table, err := src.Load(context.Background())
	if err != nil {
		return nil, err
	}
	if err := dataset.Validate(table, true); err != nil {
		return nil, err
	}

	txs, err := table.ToTransactions()
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func runBenchmark(transactions []domain.Transaction, baseURL string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	work := make(chan domain.Transaction, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for tx := range work {
				start := time.Now()
				result, err := assessTransaction(client, baseURL, tx)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %v\n", err)
					}
					continue
				}

				actual := tx.FraudFlag == 1
				if actual {
					atomic.AddInt64(&metrics.TotalFraud, 1)
				} else {
					atomic.AddInt64(&metrics.TotalNonFraud, 1)
				}

				// Any non-APPROVE decision counts as flagged
				predicted := result.Decision != string(domain.DecisionApprove)

				if predicted && actual {
					atomic.AddInt64(&metrics.TruePositives, 1)
				} else if predicted && !actual {
					atomic.AddInt64(&metrics.FalsePositives, 1)
				} else if !predicted && !actual {
					atomic.AddInt64(&metrics.TrueNegatives, 1)
				} else {
					atomic.AddInt64(&metrics.FalseNegatives, 1)
				}

				if verbose {
					status := "✓"
					if (predicted && !actual) || (!predicted && actual) {
						status = "✗"
					}
					fmt.Printf("%s Type: %-13s | Amount: ₹%12.2f | Fraud: %-5v | Decision: %-15s (%.2f)\n",
						status,
						tx.Type,
						tx.Amount,
						actual,
						result.Decision,
						result.FinalRisk,
					)
				}
			}
		}()
	}

	for _, tx := range transactions {
		work <- tx
	}
	close(work)

	wg.Wait()

	return metrics
}

func assessTransaction(client *http.Client, baseURL string, tx domain.Transaction) (*AssessResponse, error) {
	req := AssessRequest{
		Amount:   tx.Amount,
		Type:     tx.Type,
		Category: tx.MerchantCategory,
		Status:   tx.Status,
		AgeGroup: tx.SenderAgeGroup,
		State:    tx.SenderState,
		Bank:     tx.SenderBank,
		Device:   tx.DeviceType,
		Network:  tx.NetworkType,
	}
	if tx.HourOfDay >= 0 {
		hour := tx.HourOfDay
		req.HourOfDay = &hour
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/assess", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result AssessResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 DATASET STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Total Fraud:      %d\n", m.TotalFraud)
	fmt.Printf("   Total Non-Fraud:  %d\n", m.TotalNonFraud)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	fmt.Printf("\n📈 CONFUSION MATRIX\n")
	fmt.Println("                        Predicted")
	fmt.Println("                 FLAGGED     APPROVED")
	fmt.Println("              ┌──────────┬──────────┐")
	fmt.Printf("   Actual  F  │ %8d │ %8d │  (TP, FN)\n", m.TruePositives, m.FalseNegatives)
	fmt.Println("              ├──────────┼──────────┤")
	fmt.Printf("          NF  │ %8d │ %8d │  (FP, TN)\n", m.FalsePositives, m.TrueNegatives)
	fmt.Println("              └──────────┴──────────┘")

	precision := float64(0)
	if m.TruePositives+m.FalsePositives > 0 {
		precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}

	recall := float64(0)
	if m.TruePositives+m.FalseNegatives > 0 {
		recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}

	f1 := float64(0)
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}

	accuracy := float64(0)
	total := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	if total > 0 {
		accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}

	fmt.Printf("\n🎯 DETECTION METRICS\n")
	fmt.Printf("   Precision:  %.4f  (of flags, how many were actual fraud)\n", precision)
	fmt.Printf("   Recall:     %.4f  (of fraud, how many did we catch)\n", recall)
	fmt.Printf("   F1-Score:   %.4f  (harmonic mean of precision & recall)\n", f1)
	fmt.Printf("   Accuracy:   %.4f  (overall correct predictions)\n", accuracy)

	fmt.Printf("\n🔍 DETECTION ANALYSIS\n")
	if m.TotalFraud > 0 {
		detectionRate := float64(m.TruePositives) / float64(m.TotalFraud) * 100
		missRate := float64(m.FalseNegatives) / float64(m.TotalFraud) * 100
		fmt.Printf("   Fraud Detected:    %d / %d (%.2f%%)\n", m.TruePositives, m.TotalFraud, detectionRate)
		fmt.Printf("   Fraud Missed:      %d / %d (%.2f%%) ⚠️\n", m.FalseNegatives, m.TotalFraud, missRate)
	}
	if m.TotalNonFraud > 0 {
		falseAlarmRate := float64(m.FalsePositives) / float64(m.TotalNonFraud) * 100
		fmt.Printf("   False Alarms:      %d / %d (%.2f%%)\n", m.FalsePositives, m.TotalNonFraud, falseAlarmRate)
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		tps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f tx/sec\n", tps)
	}

	fmt.Printf("\n💡 INTERPRETATION\n")
	if recall >= 0.9 {
		fmt.Println("   ✅ Excellent recall - catching most fraud")
	} else if recall >= 0.7 {
		fmt.Println("   ⚠️  Good recall - but missing some fraud")
	} else if recall >= 0.5 {
		fmt.Println("   ⚠️  Moderate recall - significant fraud being missed")
	} else {
		fmt.Println("   ❌ Poor recall - most fraud is being missed!")
	}

	if precision >= 0.5 {
		fmt.Println("   ✅ Good precision - alerts are meaningful")
	} else {
		fmt.Println("   ⚠️  Low precision - many false alarms")
	}

	fmt.Println()
}
