package feedback

import (
	"fmt"
	"strings"

	"github.com/everesteng/assessor/internal/exam"
)

const systemPrompt = "Você é um especialista em treinamento corporativo e Excel. " +
	"Forneça feedbacks detalhados e construtivos em português brasileiro."

// unansweredMarker is rendered for a missing or out-of-range answer. The
// prompt must never fall back to option 0's text.
const unansweredMarker = "Não respondeu"

// BuildPrompt renders the deterministic assessment prompt: employee identity,
// overall result, then one block per question with the chosen and correct
// option texts and a correct/incorrect tag.
func BuildPrompt(req Request) string {
	var sb strings.Builder

	sb.WriteString("Você é um especialista em Excel e análise de desempenho profissional. ")
	sb.WriteString("Analise os resultados do teste de Excel Nível Intermediário do colaborador abaixo ")
	sb.WriteString("e forneça um feedback personalizado, detalhado e construtivo.\n\n")

	sb.WriteString("INFORMAÇÕES DO COLABORADOR:\n")
	fmt.Fprintf(&sb, "- Nome: %s\n", req.EmployeeName)
	fmt.Fprintf(&sb, "- Cargo: %s\n", req.Position)
	fmt.Fprintf(&sb, "- Setor: %s\n\n", req.Sector)

	sb.WriteString("RESULTADO GERAL:\n")
	fmt.Fprintf(&sb, "- Acertos: %d de %d questões\n", req.Score, req.TotalQuestions)
	fmt.Fprintf(&sb, "- Porcentagem: %d%%\n\n", exam.Percentage(req.Score, req.TotalQuestions))

	sb.WriteString("ANÁLISE DETALHADA DAS RESPOSTAS:\n")
	for i, q := range req.Questions {
		chosenText := unansweredMarker
		correct := false
		if chosen, ok := req.Answers[q.ID]; ok && chosen >= 0 && chosen < len(q.Options) {
			chosenText = q.Options[chosen]
			correct = chosen == q.CorrectAnswer
		}
		result := "INCORRETA"
		if correct {
			result = "CORRETA"
		}
		fmt.Fprintf(&sb, "Questão %d (%s): %s\n", i+1, q.Category, q.Question)
		fmt.Fprintf(&sb, "Resposta do colaborador: %s\n", chosenText)
		fmt.Fprintf(&sb, "Resposta correta: %s\n", q.Options[q.CorrectAnswer])
		fmt.Fprintf(&sb, "Resultado: %s\n\n", result)
	}

	sb.WriteString("Por favor, forneça:\n")
	sb.WriteString("1. Uma análise geral do desempenho\n")
	sb.WriteString("2. Pontos fortes identificados\n")
	sb.WriteString("3. Áreas que precisam de melhoria\n")
	sb.WriteString("4. Recomendações específicas de estudo para cada área com dificuldade\n")
	sb.WriteString("5. Sugestões de recursos ou práticas para desenvolver as habilidades necessárias\n\n")
	sb.WriteString("O feedback deve ser profissional, motivador e direcionado para o desenvolvimento do colaborador.\n")

	return sb.String()
}
