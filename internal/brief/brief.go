// Package brief aggregates competitor signals and synthesizes the editorial
// content brief through one LLM completion call.
package brief

import (
	"context"
	"fmt"
	"strings"

	"briefgen/internal/llm"
)

const systemPrompt = `Sei un senior SEO content strategist. Analizza i dati SERP forniti e produci un brief dettagliato e operativo sui contenuti.`

// userPromptTemplate is the fixed instruction template. The numbered
// MAIUSCOLO section format and the H1:/H2:/H3: outline lines are the wire
// contract the renderer's parser depends on.
const userPromptTemplate = `Parola chiave target: %s
Pubblico di destinazione: %s
Obiettivo del contenuto: %s

Ecco le prime %d pagine in classifica:
%s

Produci un brief con queste sezioni:

1. ANALISI DELL'INTENTO DI RICERCA: cosa sta cercando l'utente? (~100 parole)
2. FORMATO DEL CONTENUTO CONSIGLIATO: con motivazione.
3. TAG TITOLO SUGGERITI: 3 opzioni sotto i 60 caratteri.
4. META DESCRIZIONI SUGGERITE: 2 opzioni sotto i 155 caratteri.
5. STRUTTURA HEADING CONSIGLIATA: schema H1→H2→H3 completo. Indica argomenti must-cover, segnali forti (3+ pagine) e opportunità di differenziazione.
6. WORD COUNT CONSIGLIATO — con motivazione.
7. ENTITÀ CHIAVE DA INCLUDERE — concetti, strumenti, brand.
8. OPPORTUNITÀ DI LINK INTERNI — [Da compilare a cura del team SEO]
9. NOTE SUL CONTENUTO — tono, profondità, angolazione.

Formatta ogni sezione con il numero e il titolo in MAIUSCOLO.`

// SynthesisError wraps a model-provider failure. The run aborts on it;
// no partial brief is offered and no retry is attempted.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return "brief synthesis failed: " + e.Err.Error()
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// Generator synthesizes briefs from aggregated competitor signals.
type Generator struct {
	provider  llm.Provider
	maxTokens int
}

// NewGenerator creates a new brief generator.
func NewGenerator(provider llm.Provider, maxTokens int) *Generator {
	if maxTokens == 0 {
		maxTokens = 4096
	}
	return &Generator{provider: provider, maxTokens: maxTokens}
}

// IsConfigured reports whether the underlying provider has credentials.
func (g *Generator) IsConfigured() bool {
	return g.provider != nil && g.provider.IsConfigured()
}

// Generate issues exactly one completion request and returns the raw brief
// text verbatim.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	user := fmt.Sprintf(userPromptTemplate,
		req.Keyword, req.Audience, req.Goal, len(req.Pages), Summarize(req.Pages))

	text, err := g.provider.Generate(ctx, systemPrompt, user, g.maxTokens)
	if err != nil {
		return "", &SynthesisError{Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &SynthesisError{Err: fmt.Errorf("empty completion")}
	}
	return text, nil
}
