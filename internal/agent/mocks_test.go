package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Nivasini17/ai-agent-challenge/internal/oracle"
	"github.com/Nivasini17/ai-agent-challenge/internal/statement"
)

// --- MockOracleClient ---

type MockOracleClient struct {
	GenerateFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	mu      sync.Mutex
	Prompts []string // user prompts, in call order
}

var _ oracle.Client = (*MockOracleClient)(nil)

func (m *MockOracleClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, userPrompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, systemPrompt, userPrompt)
	}
	return "", fmt.Errorf("mock generate not scripted")
}

func (m *MockOracleClient) Model() string { return "mock-model" }

func (m *MockOracleClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

func (m *MockOracleClient) Prompt(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Prompts[i]
}

// --- Fixtures ---

const testSampleText = `DATE DESCRIPTION AMOUNT
01-08-2024 COFFEE 4.50
02-08-2024 BOOKS 12.00
03-08-2024 RENT 900.00`

const fullCSV = "Date,Description,Amount\n01-08-2024,COFFEE,4.50\n02-08-2024,BOOKS,12.00\n03-08-2024,RENT,900.00"

const shortCSV = "Date,Description,Amount\n01-08-2024,COFFEE,4.50\n02-08-2024,BOOKS,12.00"

func testReference() statement.Table {
	table := statement.NewTable("Date", "Description", "Amount")
	table.AppendRow("01-08-2024", "COFFEE", "4.50")
	table.AppendRow("02-08-2024", "BOOKS", "12.00")
	table.AppendRow("03-08-2024", "RENT", "900.00")
	return table
}

func testSession(target string, maxAttempts int) *Session {
	return NewSession(&statement.Pair{
		Target:     target,
		SampleText: testSampleText,
		Reference:  testReference(),
	}, maxAttempts)
}

// candidateReturning builds a runnable candidate that emits the given CSV
// text for any input.
func candidateReturning(csvText string) string {
	return fmt.Sprintf("package main\n\nfunc ParseStatement(input string) (string, error) {\n\treturn %q, nil\n}\n", csvText)
}

const erroringCandidate = `package main

import "errors"

func ParseStatement(input string) (string, error) {
	return "", errors.New("no transactions found")
}
`

// testLoop builds a loop with millisecond backoff so rate-limit paths run
// fast under test.
func testLoop(client oracle.Client, cfg Config) *Loop {
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = time.Millisecond
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 4 * time.Millisecond
	}
	return New(client, nil, cfg)
}
