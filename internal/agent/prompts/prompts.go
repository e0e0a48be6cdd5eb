// Package prompts holds the fixed texts the agent sends to the model.
package prompts

// System is the system prompt for every question.
const System = "Answer the following queries, being as factual and analytical as you can"

// Sample questions answered when the agent runs without arguments.
const (
	TopTradedQuery = "What are the top 3 companies by transaction volume on the 4th, June 2024?"
	TrendQuery     = "Based on the closing prices of BREN between 1st and 31st of May, are we seeing an uptrend or downtrend? Try to explain why."
	CompareQuery   = "What is the company with the largest market cap between BBCA and BREN? For said company, retrieve the email, phone number, listing date and website for further research."
)

// DefaultQueries returns the sample questions in the order they are asked.
func DefaultQueries() []string {
	return []string{TopTradedQuery, TrendQuery, CompareQuery}
}

// Transcript separators printed between answers.
const (
	QuestionLabel = "Question:"
	AnswerLabel   = "Answer:"
	Separator     = "======"
)
