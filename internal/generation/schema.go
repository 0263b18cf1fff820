package generation

import (
	"sort"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// PlanSchemaName - имя схемы в response_format.
const PlanSchemaName = "saas_plan"

func str(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: desc}
}

func num(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Number, Description: desc}
}

func enum(values ...string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Enum: values}
}

// object строит объект, в котором все свойства обязательны (strict mode требует этого).
func object(desc string, props map[string]jsonschema.Definition) jsonschema.Definition {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	sort.Strings(required)
	return jsonschema.Definition{
		Type:                 jsonschema.Object,
		Description:          desc,
		Properties:           props,
		Required:             required,
		AdditionalProperties: false,
	}
}

func array(desc string, item jsonschema.Definition) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Array, Description: desc, Items: &item}
}

// PlanSchema возвращает схему документа плана: бизнес-канва и план MVP.
func PlanSchema() jsonschema.Definition {
	canvas := object("Business model canvas", map[string]jsonschema.Definition{
		"customerSegments":      str("Who are your most important customers? Be specific about demographics, behaviors, and needs."),
		"valuePropositions":     str("What unique value do you deliver? What problems do you solve?"),
		"channels":              str("How do you reach your customers? What channels work best?"),
		"customerRelationships": str("What type of relationship does each customer segment expect?"),
		"revenueStreams":        str("For what value are customers willing to pay? How would they prefer to pay?"),
		"keyResources":          str("What key resources does your value proposition require?"),
		"keyActivities":         str("What key activities does your value proposition require?"),
		"keyPartnerships":       str("Who are your key partners and suppliers?"),
		"costStructure":         str("What are the most important costs inherent to your business model?"),
	})

	task := object("", map[string]jsonschema.Definition{
		"id":             {Type: jsonschema.String},
		"title":          {Type: jsonschema.String},
		"description":    {Type: jsonschema.String},
		"priority":       enum("high", "medium", "low"),
		"estimatedHours": {Type: jsonschema.Number},
		"completed":      {Type: jsonschema.Boolean},
		"phase":          enum("planning", "development", "testing", "launch"),
	})

	cost := object("", map[string]jsonschema.Definition{
		"service":         {Type: jsonschema.String},
		"provider":        {Type: jsonschema.String},
		"monthlyCost":     {Type: jsonschema.Number},
		"description":     {Type: jsonschema.String},
		"alternative":     {Type: jsonschema.String},
		"alternativeCost": {Type: jsonschema.Number},
	})

	problem := object("", map[string]jsonschema.Definition{
		"title":       {Type: jsonschema.String},
		"description": {Type: jsonschema.String},
		"severity":    enum("high", "medium", "low"),
		"mitigation":  {Type: jsonschema.String},
	})

	professional := object("", map[string]jsonschema.Definition{
		"role":          {Type: jsonschema.String},
		"description":   {Type: jsonschema.String},
		"estimatedCost": {Type: jsonschema.String},
		"whenToHire":    {Type: jsonschema.String},
		"alternative":   {Type: jsonschema.String},
	})

	mvp := object("MVP execution plan", map[string]jsonschema.Definition{
		"summary":             str("A brief 2-3 sentence summary of the MVP approach"),
		"timelineWeeks":       num("Estimated weeks to complete the MVP"),
		"tasks":               array("Ordered list of tasks to complete the MVP", task),
		"infrastructureCosts": array("Infrastructure and cloud services needed", cost),
		"totalMonthlyCost":    num("Total estimated monthly infrastructure cost"),
		"problems":            array("Potential problems and challenges", problem),
		"professionals":       array("Professionals that might need to be hired", professional),
	})

	return object("Generated SaaS plan", map[string]jsonschema.Definition{
		"businessCanvas": canvas,
		"mvpPlan":        mvp,
	})
}
