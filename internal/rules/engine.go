// Package rules provides the deterministic rule checks applied to raw
// transaction attributes, plus an optional CEL-Go layer for operator-defined
// rules.
package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/openupi/kingfisher/internal/domain"
)

// HighValueThreshold is the amount above which the high-value signal fires,
// in INR.
const HighValueThreshold = 200000

// untrustedNetworks are the network contexts treated as untrusted.
var untrustedNetworks = map[string]struct{}{
	"Public WiFi": {},
	"VPN / Proxy": {},
}

// VelocityGetter returns the recent assessment count for a sender VPA.
type VelocityGetter func(ctx context.Context, senderVPA string) (int64, error)

// Engine evaluates the built-in checks in fixed order, then any loaded
// custom rules. The built-in order is part of the contract: amount, then
// network, then hour.
type Engine struct {
	mu             sync.RWMutex
	env            *cel.Env
	custom         []*CompiledRule
	velocityGetter VelocityGetter
	maxWorkers     int
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Config  *domain.CustomRule
	Program cel.Program
}

// NewEngine creates a rule engine. velocityGetter may be nil when velocity
// tracking is disabled.
func NewEngine(velocityGetter VelocityGetter, maxWorkers int) (*Engine, error) {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	env, err := cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("tx_type", cel.StringType),
		cel.Variable("category", cel.StringType),
		cel.Variable("state", cel.StringType),
		cel.Variable("bank", cel.StringType),
		cel.Variable("device", cel.StringType),
		cel.Variable("network", cel.StringType),
		cel.Variable("hour", cel.IntType),
		cel.Variable("velocity_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:            env,
		velocityGetter: velocityGetter,
		maxWorkers:     maxWorkers,
	}, nil
}

// LoadCustomRules compiles and loads operator-defined rules, replacing any
// previously loaded set. A rule that fails to compile rejects the whole load
// so bad rules never reach request time.
func (e *Engine) LoadCustomRules(configs []*domain.CustomRule) error {
	compiled := make([]*CompiledRule, 0, len(configs))
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		c, err := e.compileRule(cfg)
		if err != nil {
			return err
		}
		compiled = append(compiled, c)
	}

	e.mu.Lock()
	e.custom = compiled
	e.mu.Unlock()
	return nil
}

// LoadCustomRulesFile loads custom rules from a JSON file.
func (e *Engine) LoadCustomRulesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	var configs []*domain.CustomRule
	if err := json.Unmarshal(data, &configs); err != nil {
		return fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return e.LoadCustomRules(configs)
}

// CustomRulesCount returns the number of loaded custom rules.
func (e *Engine) CustomRulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.custom)
}

// Evaluate runs all checks against a raw assessment request and returns the
// fired signals in a fixed, deterministic order: the three built-in checks
// first, then custom rules in load order.
func (e *Engine) Evaluate(ctx context.Context, req *domain.AssessmentRequest) []domain.RuleSignal {
	var signals []domain.RuleSignal

	if req.Amount > HighValueThreshold {
		signals = append(signals, domain.RuleSignal{Name: domain.SignalHighValue})
	}
	if _, ok := untrustedNetworks[req.Network]; ok {
		signals = append(signals, domain.RuleSignal{Name: domain.SignalUntrustedNetwork})
	}
	if hour := req.Hour(); hour < 6 || hour > 22 {
		signals = append(signals, domain.RuleSignal{Name: domain.SignalUnusualHour})
	}

	signals = append(signals, e.evaluateCustom(ctx, req)...)
	return signals
}

// evaluateCustom runs the loaded CEL rules against the request. Rules run
// concurrently under a semaphore but results keep load order, so the signal
// list stays deterministic.
func (e *Engine) evaluateCustom(ctx context.Context, req *domain.AssessmentRequest) []domain.RuleSignal {
	e.mu.RLock()
	custom := e.custom
	e.mu.RUnlock()

	if len(custom) == 0 {
		return nil
	}

	var velocityCount int64
	if e.velocityGetter != nil && req.SenderVPA != "" {
		count, err := e.velocityGetter(ctx, req.SenderVPA)
		if err == nil {
			velocityCount = count
		}
	}

	activation := map[string]any{
		"amount":         req.Amount,
		"tx_type":        req.Type,
		"category":       req.MerchantCategory,
		"state":          req.State,
		"bank":           req.Bank,
		"device":         req.Device,
		"network":        req.Network,
		"hour":           int64(req.Hour()),
		"velocity_count": velocityCount,
	}

	fired := make([]bool, len(custom))
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.maxWorkers)

	for i, rule := range custom {
		wg.Add(1)
		go func(idx int, r *CompiledRule) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			out, _, err := r.Program.Eval(activation)
			if err != nil {
				slog.Warn("custom rule evaluation failed",
					"rule", r.Config.Name,
					"error", err,
				)
				return
			}
			if b, ok := out.(types.Bool); ok && bool(b) {
				fired[idx] = true
			}
		}(i, rule)
	}

	wg.Wait()

	var signals []domain.RuleSignal
	for i, f := range fired {
		if f {
			signals = append(signals, domain.RuleSignal{Name: custom[i].Config.Name})
		}
	}
	return signals
}

func (e *Engine) compileRule(cfg *domain.CustomRule) (*CompiledRule, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("custom rule requires a name")
	}

	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", cfg.Name, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", cfg.Name, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", cfg.Name, err)
	}

	return &CompiledRule{Config: cfg, Program: program}, nil
}
