package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/dataset"
)

//go:embed intent_system.md
var intentSystem string

//go:embed analyst_system.md
var analystSystem string

//go:embed explain_system.md
var explainSystem string

const (
	maxContextColumns = 20
	maxSampleValues   = 3
)

func IntentSystem() string {
	return strings.TrimSpace(intentSystem)
}

func AnalystSystem() string {
	return strings.TrimSpace(analystSystem)
}

func ExplainSystem() string {
	return strings.TrimSpace(explainSystem)
}

// BuildIntentContext renders column and component metadata for the intent
// prompt. Dataset rows are never included.
func BuildIntentContext(d *dashboard.Dashboard, catalog dataset.Catalog) string {
	var b strings.Builder

	b.WriteString("AVAILABLE COLUMNS (metadata only):\n")
	if len(catalog) == 0 {
		b.WriteString("  (no columns)\n")
	}
	for i, col := range catalog {
		if i == maxContextColumns {
			break
		}
		fmt.Fprintf(&b, "  - %s (%s)", col.Name, col.Type)
		if len(col.SampleValues) > 0 {
			samples := col.SampleValues
			if len(samples) > maxSampleValues {
				samples = samples[:maxSampleValues]
			}
			fmt.Fprintf(&b, " [samples: %s]", strings.Join(samples, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nCURRENT DASHBOARD COMPONENTS:\n")
	if d == nil || len(d.Components) == 0 {
		b.WriteString("  (no components)\n")
		return strings.TrimRight(b.String(), "\n")
	}
	for _, c := range d.Components {
		fmt.Fprintf(&b, "  - ID: %s, Type: %s, Title: %s", c.ID, c.Type, c.Title)
		if c.Config.XAxis != "" {
			fmt.Fprintf(&b, ", X-axis: %s", c.Config.XAxis)
		}
		if c.Config.YAxis != "" {
			fmt.Fprintf(&b, ", Y-axis: %s", c.Config.YAxis)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// BuildIntentPrompt wraps the user command with routing and output rules
func BuildIntentPrompt(command, context string) string {
	return fmt.Sprintf(`CONTEXT:
%s

USER COMMAND: %q

INSTRUCTIONS:
1. FIRST: Determine the action type based on the command:
   - Questions starting with "what", "which", "how many", "how much", "what's", "what are", "show me the" -> use "answer_question"
   - Questions about charts like "what does this chart mean", "explain this chart" -> use "explain_chart"
   - Commands to create visualizations -> use "add_chart", "generate_dashboard", etc.
2. Extract column names from the user's command
3. Match them to the AVAILABLE COLUMNS in the context above
4. Use EXACT column names from the AVAILABLE COLUMNS list
5. For bar/line charts: x_axis = categorical column, y_axis = numeric column
6. For KPI: y_axis = numeric column (no x_axis)
7. If user says "by [column]", that column is the x_axis
8. If user mentions a metric (revenue, sales, quantity, etc.), that's the y_axis

OUTPUT REQUIREMENTS:
- Output ONLY valid JSON
- No markdown code blocks
- No explanations outside JSON
- No text before or after JSON
- Use the exact format specified in system prompt

RESPOND WITH JSON ONLY:`, context, command)
}

// AnswerContext is the material handed to the analyst prompt
type AnswerContext struct {
	Widgets   string
	TotalRows int
	Columns   []string
	Summary   string
	Analysis  string
	Sample    string
}

func BuildAnswerPrompt(question string, ac AnswerContext) string {
	return fmt.Sprintf(`You are an expert data analyst assistant helping users understand their dashboard data.

DASHBOARD CONTEXT:
- Current widgets: %s
- Total data rows: %d
- Available columns: %s

DATA SUMMARY:
%s

DATA ANALYSIS RESULTS:
%s

SAMPLE DATA (first 10 rows):
%s

USER QUESTION: %q

INSTRUCTIONS:
1. Answer the user's question directly and clearly using the actual data
2. Provide specific numbers, percentages, and insights from the data
3. If the question asks for a list (like "top 5"), provide the complete list with values
4. Include relevant insights and patterns you notice in the data
5. Reference the dashboard widgets if relevant to the question
6. Format numbers appropriately (use commas, percentages where relevant)
7. Be conversational but professional
8. If you notice interesting patterns or anomalies, mention them

Provide a comprehensive answer with insights:`,
		ac.Widgets, ac.TotalRows, strings.Join(ac.Columns, ", "), ac.Summary, ac.Analysis, ac.Sample, question)
}

func BuildExplainPrompt(question, context string) string {
	return fmt.Sprintf(`%s

USER QUESTION: %q

Provide a detailed analysis of this chart including:
1. What the chart shows (data summary)
2. Key insights and patterns
3. Trends and anomalies
4. Business implications and decision-making recommendations
5. Actionable next steps

Be specific, data-driven, and focus on business value. Use the actual data to support your insights.`, context, question)
}
