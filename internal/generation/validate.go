package generation

import (
	"fmt"
	"math"
	"strings"

	"sasselerator/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/sashabaranov/go-openai/jsonschema"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// costTolerance - допустимое расхождение totalMonthlyCost и суммы статей.
const costTolerance = 0.01

// DecodeDocument проверяет ответ бэкенда по схеме и доменным правилам.
// Любое несоответствие - models.ErrGeneration, частично валидный документ не возвращается.
func DecodeDocument(schema jsonschema.Definition, content string) (*models.PlanDocument, error) {
	var doc models.PlanDocument
	if err := schema.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("%w: response does not match schema: %w", models.ErrGeneration, err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrGeneration, describeValidation(err))
	}

	seen := make(map[string]struct{}, len(doc.MVPPlan.Tasks))
	for _, t := range doc.MVPPlan.Tasks {
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate task id %q", models.ErrGeneration, t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	// Сгенерированный план всегда начинается с невыполненных задач
	for i := range doc.MVPPlan.Tasks {
		doc.MVPPlan.Tasks[i].Completed = false
	}
	return &doc, nil
}

// CostMismatch возвращает расхождение totalMonthlyCost с суммой статей, если оно заметно.
func CostMismatch(plan models.MVPPlan) (diff float64, mismatch bool) {
	diff = plan.TotalMonthlyCost - plan.CostSum()
	return diff, math.Abs(diff) > costTolerance
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
