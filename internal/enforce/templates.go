// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enforce

import "fmt"

// keywordTemplates carry the primary keyword inside a <strong> tag so the
// inserted sentence also counts toward bold-anchor coverage. Both pools are
// cycled by an insertion index, giving deterministic but non-repeating
// filler within one article.
var keywordTemplates = []string{
	"Na operação diária, <strong>%s</strong> precisa ser monitorada com ticket médio, margem e taxa de retorno para orientar decisões com previsibilidade.",
	"Com rotina semanal, <strong>%s</strong> deve ser avaliada junto de CAC, conversão e receita incremental para calibrar investimento com segurança.",
	"Em cenários competitivos, <strong>%s</strong> ganha eficiência quando conectada a metas de margem, velocidade comercial e qualidade de lead.",
	"Para reduzir desperdício, <strong>%s</strong> precisa entrar no painel executivo com leitura por canal, região e estágio da jornada.",
	"Quando a equipe acompanha <strong>%s</strong> com critérios financeiros e operacionais, o planejamento fica mais assertivo e sustentável.",
	"Resultados consistentes exigem que <strong>%s</strong> seja tratada como métrica de negócio, não apenas como número isolado de mídia.",
}

var neutralTemplates = []string{
	"Para sustentar crescimento previsível, o time precisa manter governança de dados, rotina de testes controlados, padronização de naming e análise semanal por canal, região, produto e estágio da jornada.",
	"Com processos claros e documentação contínua, a operação ganha consistência, reduz ruído e acelera decisões táticas sem comprometer o planejamento estratégico.",
	"A integração entre conteúdo, mídia e BI melhora a leitura de causalidade, facilita priorização de hipóteses e reduz desperdícios recorrentes ao longo do trimestre.",
	"Equipes que operam com checklist técnico e ritos de revisão conseguem evoluir criativos, ofertas e segmentações de forma contínua e mensurável.",
	"Sem disciplina operacional, o volume cresce mais rápido que a qualidade; por isso, governança editorial e análise de performance devem caminhar juntas.",
	"Uma cadência de melhoria contínua, com indicadores compartilhados entre marketing e vendas, aumenta previsibilidade e protege margem mesmo em cenários voláteis.",
}

func keywordSentence(keyword string, idx int) string {
	return fmt.Sprintf("<p>"+keywordTemplates[idx%len(keywordTemplates)]+"</p>", keyword)
}

func neutralParagraph(idx int) string {
	return "<p>" + neutralTemplates[idx%len(neutralTemplates)] + "</p>"
}
