package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/TowneMJ/gpqa-train/internal/llm"
	"github.com/TowneMJ/gpqa-train/internal/output"
	"github.com/TowneMJ/gpqa-train/internal/store"
)

const defaultSystemPrompt = `You are an expert exam writer producing graduate-level multiple choice questions. Each question must require genuine domain expertise and multi-step reasoning to answer. Produce exactly one question per response, formatted as:

**Core Concept:** <the single concept being tested>

<the question text>

**A)** <option>
**B)** <option>
**C)** <option>
**D)** <option>

**Correct Answer: <letter>**

**Explanation:** <why the correct answer is right and the others are wrong>

The distractors must be plausible to a non-expert. Do not reuse concepts you have been told to avoid.`

const conceptWindow = 30

// Config drives a generation run. Styles rotate across attempts and domains
// are sampled without replacement within each cycle.
type Config struct {
	Caller       llm.Caller
	Styles       []string
	Domains      []string
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	MaxRetries   int
	Delay        time.Duration
	Sleep        func(time.Duration)
	RNG          *rand.Rand
	UI           *output.UI
}

type Generator struct {
	cfg     Config
	rng     *rand.Rand
	sleep   func(time.Duration)
	recent  []string
	pending []string
}

func New(cfg Config) (*Generator, error) {
	if cfg.Caller == nil {
		return nil, fmt.Errorf("generator: no caller configured")
	}
	if len(cfg.Domains) == 0 {
		return nil, fmt.Errorf("generator: no domains configured")
	}
	if len(cfg.Styles) == 0 {
		return nil, fmt.Errorf("generator: no styles configured")
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 8192
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.9
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	rng := cfg.RNG
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Generator{cfg: cfg, rng: rng, sleep: sleep}, nil
}

// nextDomain samples domains without replacement, reshuffling once a full
// cycle is exhausted so short runs still spread across the domain list.
func (g *Generator) nextDomain() string {
	if len(g.pending) == 0 {
		g.pending = append([]string(nil), g.cfg.Domains...)
		g.rng.Shuffle(len(g.pending), func(i, j int) {
			g.pending[i], g.pending[j] = g.pending[j], g.pending[i]
		})
	}
	d := g.pending[len(g.pending)-1]
	g.pending = g.pending[:len(g.pending)-1]
	return d
}

func (g *Generator) rememberConcept(concept string) {
	if concept == "" {
		return
	}
	g.recent = append(g.recent, concept)
	if len(g.recent) > conceptWindow {
		g.recent = g.recent[len(g.recent)-conceptWindow:]
	}
}

func (g *Generator) buildPrompt(domain, style, targetLetter string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write one multiple choice question in the domain of %s.\n\n", domain)
	fmt.Fprintf(&b, "Question style: %s\n", style)
	fmt.Fprintf(&b, "Place the correct answer at option %s.\n", targetLetter)
	if len(g.recent) > 0 {
		b.WriteString("\nConcepts already covered, do not reuse:\n")
		for _, c := range g.recent {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return b.String()
}

// Run generates up to count questions. Failed attempts are recorded in the
// batch alongside successes so the output preserves the full attempt
// history; the retry budget bounds extra attempts beyond count.
func (g *Generator) Run(ctx context.Context, count int) ([]store.BatchRecord, error) {
	letters := []string{"A", "B", "C", "D"}
	var records []store.BatchRecord
	produced := 0
	maxAttempts := count + g.cfg.MaxRetries

	for attempt := 0; produced < count && attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		if attempt > 0 && g.cfg.Delay > 0 {
			g.sleep(g.cfg.Delay)
		}

		domain := g.nextDomain()
		style := g.cfg.Styles[attempt%len(g.cfg.Styles)]
		target := letters[g.rng.Intn(len(letters))]

		if g.cfg.UI != nil {
			g.cfg.UI.Info("generating %d/%d: %s (%s)", produced+1, count, domain, style)
		}

		rec := store.BatchRecord{Domain: domain, Style: style}
		raw, err := g.cfg.Caller.Call(ctx, llm.Request{
			System:      g.cfg.SystemPrompt,
			Prompt:      g.buildPrompt(domain, style, target),
			MaxTokens:   g.cfg.MaxTokens,
			Temperature: g.cfg.Temperature,
		})
		if err != nil {
			rec.Error = err.Error()
			records = append(records, rec)
			if g.cfg.UI != nil {
				g.cfg.UI.Error("generation call failed: %v", err)
			}
			continue
		}

		data := Parse(raw)
		if err := Validate(data); err != nil {
			rec.Validation = err.Error()
			rec.Data = &data
			records = append(records, rec)
			if g.cfg.UI != nil {
				g.cfg.UI.Warning("invalid question: %v", err)
			}
			continue
		}

		rec.Success = true
		rec.Concept = data.CoreConcept
		rec.Data = &data
		records = append(records, rec)
		g.rememberConcept(data.CoreConcept)
		produced++
	}

	if produced < count {
		return records, fmt.Errorf("produced %d of %d questions before exhausting retry budget", produced, count)
	}
	return records, nil
}
