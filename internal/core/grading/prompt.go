package grading

import (
	"fmt"
	"strings"
)

// Tenses is the fixed rotation order for tense drills.
var Tenses = [...]string{
	"Present Simple",
	"Present Continuous",
	"Present Perfect",
	"Present Perfect Continuous",
	"Past Simple",
	"Past Continuous",
	"Past Perfect",
	"Past Perfect Continuous",
	"Future Simple",
	"Future Continuous",
	"Future Perfect",
	"Future Perfect Continuous",
}

// overusedVerbs are verbs the model tends to repeat across questions.
var overusedVerbs = []string{"go", "eat", "play", "read", "write", "watch", "work", "study"}

// Prepositions is offered to the model when the page does not pick a target.
var Prepositions = []string{
	"in", "on", "at", "by", "for", "with", "about", "from", "to", "of",
	"under", "over", "between", "among", "through", "during", "since", "until",
}

const responseFormat = `Respond with ONLY this JSON, no explanation, no markdown:
{"feedback": "your feedback", "next_question": "the next practice question"}`

// NextTense returns the tense that follows position idx in the rotation.
func NextTense(idx int) string {
	n := len(Tenses)
	return Tenses[((idx%n)+n+1)%n]
}

// BuildTensePrompt builds the grading prompt for a tense drill. tenseIndex is
// the rotation position of question; nil lets the model infer it.
func BuildTensePrompt(question, userAnswer string, tenseIndex *int) string {
	var b strings.Builder
	writeHeader(&b, question, userAnswer)

	b.WriteString("Then write ONE new practice question for the next tense.\n")
	b.WriteString("Tenses rotate in this fixed order:\n")
	for i, t := range Tenses {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	if tenseIndex != nil {
		fmt.Fprintf(&b, "The next question MUST practice the %s tense.\n", NextTense(*tenseIndex))
	} else {
		b.WriteString("Identify the tense of the question above and use the one after it in the list (after the last one, start again from the first).\n")
	}
	fmt.Fprintf(&b, "Choose a verb that is not one of these common repeats: %s.\n", strings.Join(overusedVerbs, ", "))
	b.WriteString("Phrase it like: Use \"<verb>\" in <tense>.\n\n")

	b.WriteString(responseFormat)
	return b.String()
}

// BuildPrepositionPrompt builds the grading prompt for a preposition drill.
// An empty target lets the model pick from Prepositions.
func BuildPrepositionPrompt(question, userAnswer, target string) string {
	var b strings.Builder
	writeHeader(&b, question, userAnswer)

	b.WriteString("Then write ONE new fill-in-the-blank sentence that practices a preposition.\n")
	target = strings.TrimSpace(target)
	if target != "" {
		fmt.Fprintf(&b, "The correct answer of the new sentence MUST be the preposition %q.\n", target)
	} else {
		fmt.Fprintf(&b, "Pick a preposition from this list that differs from the one in the question above: %s.\n", strings.Join(Prepositions, ", "))
	}
	b.WriteString("Mark the gap with ___ and do not reveal the answer.\n\n")

	b.WriteString(responseFormat)
	return b.String()
}

// BuildPrompt dispatches on mode.
func BuildPrompt(mode Mode, req Request) string {
	if mode == ModePreposition {
		return BuildPrepositionPrompt(req.Question, req.UserAnswer, req.NextPreposition)
	}
	return BuildTensePrompt(req.Question, req.UserAnswer, req.TenseIndex)
}

func writeHeader(b *strings.Builder, question, userAnswer string) {
	b.WriteString("I'm helping a student practice grammar. Here's the question and their answer:\n\n")
	fmt.Fprintf(b, "Question: %q\n", question)
	fmt.Fprintf(b, "Student's answer: %q\n\n", userAnswer)
	b.WriteString("Please provide concise, encouraging feedback.\n")
	b.WriteString("- If the student's answer is correct, reply with a short confirmation only (no explanation needed).\n")
	b.WriteString("- If the answer is incorrect, briefly explain what was wrong and provide the correct answer.\n")
	b.WriteString("- Always keep your feedback as short and helpful as possible for a grammar learner.\n\n")
}
