package explainer

import (
	"fmt"
	"strings"

	"pagesim/pkg/cache"
	"pagesim/services/simulator-svc/internal/policy"
	"pagesim/services/simulator-svc/internal/trace"
)

const (
	stepSystemInstruction = "You are an operating systems teaching assistant. Explain the core concept behind a page replacement decision. " +
		"Keep the explanation to 3-4 sentences, use simple, non-technical language where possible, and focus on the 'why' based on the specific algorithm's rule."

	compareSystemInstruction = "You are an expert Operating Systems professor. Your task is to analyze the performance of a page replacement algorithm simulation " +
		"and provide a conceptual comparison against the theoretically best algorithm (Optimal). Use markdown formatting for clarity and keep the explanation concise and highly informative."
)

// StepPrompt запрос на пояснение одного шага.
// Ключ кэша: алгоритм, страница и фреймы до обращения.
func StepPrompt(algo policy.Algorithm, step trace.StepRecord) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Current Step: Accessing Page %d.\n", step.Page)
	fmt.Fprintf(&b, "Algorithm: %s.\n", policy.DisplayName(algo))
	fmt.Fprintf(&b, "Decision: %s\n", step.Explanation)
	fmt.Fprintf(&b, "Mechanism: %s\n", step.DecisionReason)
	fmt.Fprintf(&b, "Memory State: %s.\n", describeFrames(step.FramesBefore))
	b.WriteString("Explain the *concept* (not just the mechanics) of this step for a student new to OS concepts.")

	return Prompt{
		Kind:     KindStep,
		System:   stepSystemInstruction,
		User:     b.String(),
		CacheKey: cache.BuildStepKey(algo.String(), step.Page, step.FramesBefore),
	}
}

// ComparePrompt запрос на разбор прогона в сравнении с Optimal
func ComparePrompt(result *trace.SimulationResult) Prompt {
	var b strings.Builder
	b.WriteString("Analyze the following page fault simulation:\n")
	fmt.Fprintf(&b, "Algorithm Used: %s (%s)\n", policy.DisplayName(result.Algorithm), result.Algorithm)
	fmt.Fprintf(&b, "Reference String: %s\n", trace.FormatReferenceString(result.ReferenceSequence))
	fmt.Fprintf(&b, "Number of Frames: %d\n", result.FrameCount)
	fmt.Fprintf(&b, "Actual Page Faults: %d\n", result.TotalFaults)
	b.WriteString("Compare this result against the Optimal algorithm. Explain why the Optimal algorithm would perform differently (better) " +
		"and discuss any specific concept (like Belady's Anomaly or locality of reference) relevant to this result.")

	return Prompt{
		Kind:   KindCompare,
		System: compareSystemInstruction,
		User:   b.String(),
		CacheKey: cache.BuildCompareKey(result.Algorithm.String(), result.ReferenceSequence,
			result.FrameCount, result.TotalFaults),
	}
}

func describeFrames(frames trace.Frames) string {
	parts := make([]string, len(frames))
	for i, p := range frames {
		if p == policy.EmptySlot {
			parts[i] = fmt.Sprintf("Frame %d: Empty", i)
		} else {
			parts[i] = fmt.Sprintf("Frame %d: %d", i, p)
		}
	}
	return strings.Join(parts, ", ")
}
