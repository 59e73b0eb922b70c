// Package pipeline orchestrates the end-to-end drafting flow shared by
// the interactive path and the webhook-driven automation path: fetch,
// classify, retrieve, assemble, generate, persist, notify.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/aly2302/email-assistant-llm/internal/assembly"
	"github.com/aly2302/email-assistant-llm/internal/classify"
	"github.com/aly2302/email-assistant-llm/internal/draft"
	"github.com/aly2302/email-assistant-llm/internal/knowledge"
	"github.com/aly2302/email-assistant-llm/internal/llm"
	"github.com/aly2302/email-assistant-llm/internal/mail"
	"github.com/aly2302/email-assistant-llm/internal/models"
	"github.com/aly2302/email-assistant-llm/internal/notify"
	"github.com/aly2302/email-assistant-llm/internal/queue"
	"github.com/aly2302/email-assistant-llm/internal/retrieval"
	"github.com/aly2302/email-assistant-llm/internal/store"
)

const (
	summaryTemperature = 0.2
	probeTemperature   = 0.2
)

// Relationship words that route a contact to the informal persona.
var informalRelationships = []string{
	"amigo", "amiga", "irmão", "irmã", "irmao", "irma",
	"friend", "brother", "sister",
}

// Config selects which personas the automation path writes as.
type Config struct {
	// DefaultPersona is used when nothing more specific applies
	DefaultPersona string

	// InformalPersona is used for friends and family
	InformalPersona string
}

// Deps are the collaborators the pipeline orchestrates.
type Deps struct {
	Repo       *knowledge.Repository
	Mailer     mail.Mailer
	LLM        llm.Client
	Classifier *classify.Classifier
	Engine     *retrieval.Engine
	Generator  *draft.Generator
	Components *draft.ComponentResolver
	Store      *store.Store
	Notifier   notify.Notifier
	Logger     *log.Logger
}

// Pipeline runs the drafting flow.
type Pipeline struct {
	deps Deps
	cfg  Config
}

// New builds a Pipeline.
func New(deps Deps, cfg Config) *Pipeline {
	return &Pipeline{deps: deps, cfg: cfg}
}

// DraftRequest is one interactive drafting call. Either ThreadID or
// EmailText must be set; with a thread ID, the newest message of the
// thread is the one being answered.
type DraftRequest struct {
	PersonaKey   string `json:"persona_key"`
	ThreadID     string `json:"thread_id,omitempty"`
	EmailText    string `json:"email_text,omitempty"`
	From         string `json:"from,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// DraftResult is the outcome of one drafting call.
type DraftResult struct {
	Draft          string                `json:"draft"`
	Classification models.Classification `json:"classification"`
	Sender         mail.Sender           `json:"sender"`
}

// DraftReply runs the interactive path: no persistence, no notification,
// the draft goes straight back to the caller.
func (p *Pipeline) DraftReply(ctx context.Context, req DraftRequest) (DraftResult, error) {
	emailText := req.EmailText
	sender := mail.ExtractSender(req.From)

	if req.ThreadID != "" {
		if p.deps.Mailer == nil {
			return DraftResult{}, fmt.Errorf("thread drafting requires a mail client")
		}
		thread, err := p.deps.Mailer.GetThread(ctx, req.ThreadID)
		if err != nil {
			return DraftResult{}, err
		}
		last := thread.LastMessage()
		if last == nil {
			return DraftResult{}, fmt.Errorf("thread %s has no messages", req.ThreadID)
		}
		emailText = last.Body
		sender = mail.ExtractSender(last.Header("From"))
	}

	if strings.TrimSpace(emailText) == "" {
		return DraftResult{}, fmt.Errorf("nothing to reply to: empty email text")
	}

	return p.draftForEmail(ctx, req.PersonaKey, emailText, sender, req.Instructions)
}

// draftForEmail is the sequential drafting contract shared by both paths:
// classify, retrieve, resolve components, assemble, generate. Only
// generation failure aborts.
func (p *Pipeline) draftForEmail(ctx context.Context, personaKey, emailText string, sender mail.Sender, instructions string) (DraftResult, error) {
	persona, err := p.deps.Repo.Persona(personaKey)
	if err != nil {
		return DraftResult{}, err
	}

	classification := p.deps.Classifier.Classify(ctx, persona, emailText)
	if classification.Err != "" {
		p.deps.Logger.Warn("classification degraded", "reason", classification.Err)
	}

	interlocutor, err := p.deps.Repo.ResolveInterlocutor(sender.Email)
	if err != nil {
		return DraftResult{}, err
	}

	facts, err := p.deps.Repo.CombinedFacts(personaKey)
	if err != nil {
		return DraftResult{}, err
	}
	retrieved := p.deps.Engine.Retrieve(emailText, facts, persona.Learned)

	recipientName := recipientName(interlocutor, classification, sender)
	greeting, closing, signature, err := p.resolveComponents(persona, recipientName)
	if err != nil {
		return DraftResult{}, err
	}

	contextBlock := assembly.BuildContextBlock(assembly.ContextInput{
		Persona:      persona,
		Interlocutor: interlocutor,
		Facts:        retrieved.Facts,
		Corrections:  retrieved.Corrections,
	})

	prompt := assembly.BuildDraftPrompt(assembly.PromptInput{
		PersonaKey:    personaKey,
		Persona:       persona,
		ContextBlock:  contextBlock,
		OriginalEmail: emailText,
		Instructions:  instructions,
		Greeting:      greeting,
		Closing:       closing,
		Signature:     signature,
	})

	body, err := p.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		return DraftResult{}, err
	}

	return DraftResult{
		Draft:          body,
		Classification: classification,
		Sender:         sender,
	}, nil
}

// recipientName picks the best available name for the greeting: the known
// profile first, then the classifier's guess, then the header name.
func recipientName(interlocutor *models.InterlocutorProfile, classification models.Classification, sender mail.Sender) string {
	if interlocutor != nil && interlocutor.FullName != "" {
		return interlocutor.FullName
	}
	if classification.SenderNameGuess != "" {
		return classification.SenderNameGuess
	}
	return sender.Name
}

func (p *Pipeline) resolveComponents(persona *models.Persona, recipientName string) (greeting, closing, signature string, err error) {
	lookup := func(typeKey, id string) (string, error) {
		component, err := p.deps.Repo.Component(typeKey, id)
		if err != nil {
			return "", err
		}
		return p.deps.Components.Resolve(component, recipientName), nil
	}

	if greeting, err = lookup(models.ComponentGreetings, persona.DefaultComponents.GreetingID); err != nil {
		return "", "", "", err
	}
	if closing, err = lookup(models.ComponentClosings, persona.DefaultComponents.ClosingID); err != nil {
		return "", "", "", err
	}
	if signature, err = lookup(models.ComponentSignatures, persona.DefaultComponents.SignatureID); err != nil {
		return "", "", "", err
	}
	return greeting, closing, signature, nil
}

// ProcessThread runs the automation path for one webhook-delivered thread.
// The thread is marked processed before generation starts, so a duplicate
// delivery is skipped instead of drafting twice.
func (p *Pipeline) ProcessThread(ctx context.Context, task queue.ThreadTask) error {
	logger := p.deps.Logger.With("thread_id", task.ThreadID)

	processed, err := p.deps.Store.IsProcessed(ctx, task.ThreadID)
	if err != nil {
		return err
	}
	if processed {
		logger.Info("thread already processed, skipping")
		return nil
	}
	if err := p.deps.Store.MarkProcessed(ctx, task.ThreadID); err != nil {
		return err
	}

	thread, err := p.deps.Mailer.GetThread(ctx, task.ThreadID)
	if err != nil {
		return err
	}
	last := thread.LastMessage()
	if last == nil {
		logger.Info("thread has no messages, skipping")
		return nil
	}
	if last.HasLabel(mail.LabelSent) {
		logger.Info("newest message is our own, skipping")
		return nil
	}
	if strings.TrimSpace(last.Body) == "" {
		logger.Info("newest message has no extractable body, skipping")
		return nil
	}

	sender := mail.ExtractSender(last.Header("From"))
	personaKey, err := p.selectPersona(ctx, sender, last.Body)
	if err != nil {
		return err
	}

	result, err := p.draftForEmail(ctx, personaKey, last.Body, sender, "")
	if err != nil {
		return err
	}

	draftID, err := p.deps.Store.CreateDraft(ctx, models.PendingDraft{
		ThreadID:          task.ThreadID,
		Recipient:         sender.Email,
		Subject:           last.Header("Subject"),
		Body:              result.Draft,
		OriginalMessageID: last.Header("Message-ID"),
	})
	if err != nil {
		return err
	}
	logger.Info("draft stored", "draft_id", draftID, "persona", personaKey)

	notification := notify.DraftNotification{
		Subject:         last.Header("Subject"),
		OriginalSummary: p.summarize(ctx, last.Body),
		Preview:         result.Draft,
	}
	if err := p.deps.Notifier.NotifyDraft(ctx, draftID, notification); err != nil {
		logger.Warn("draft notification failed", "error", err)
	}
	return nil
}

// scanLimit bounds how many threads one scan task may process.
const scanLimit = 10

// HandleTask dispatches a dequeued task: scan tasks fan out over recent
// inbox threads, direct tasks process one thread.
func (p *Pipeline) HandleTask(ctx context.Context, task queue.ThreadTask) error {
	if !task.Scan {
		return p.ProcessThread(ctx, task)
	}
	return p.ScanInbox(ctx, task.Account)
}

// ScanInbox processes the recent unread threads of the account. Threads
// already processed are skipped inside ProcessThread; per-thread failures
// are logged and do not stop the scan.
func (p *Pipeline) ScanInbox(ctx context.Context, account string) error {
	lister, ok := p.deps.Mailer.(mail.ThreadLister)
	if !ok {
		return fmt.Errorf("mailer cannot list threads")
	}

	ids, err := lister.ListRecentThreads(ctx, scanLimit)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := p.ProcessThread(ctx, queue.ThreadTask{ThreadID: id, Account: account}); err != nil {
			p.deps.Logger.Error("thread processing failed during scan", "thread_id", id, "error", err)
		}
	}
	return nil
}

// selectPersona routes the thread to a persona: known informal
// relationships win, otherwise a one-word tone probe decides between the
// informal and default personas. Probe failure falls back to the default.
func (p *Pipeline) selectPersona(ctx context.Context, sender mail.Sender, emailText string) (string, error) {
	if p.cfg.InformalPersona == "" || p.cfg.InformalPersona == p.cfg.DefaultPersona {
		return p.cfg.DefaultPersona, nil
	}

	interlocutor, err := p.deps.Repo.ResolveInterlocutor(sender.Email)
	if err != nil {
		return "", err
	}
	if interlocutor != nil {
		relationship := strings.ToLower(interlocutor.Relationship)
		for _, term := range informalRelationships {
			if strings.Contains(relationship, term) {
				return p.cfg.InformalPersona, nil
			}
		}
		return p.cfg.DefaultPersona, nil
	}

	prompt := "Does the following email call for a formal or an informal reply? " +
		"Answer with exactly one word: formal or informal.\n\n\"\"\"\n" + emailText + "\n\"\"\""
	answer, err := p.deps.LLM.Generate(ctx, prompt, probeTemperature)
	if err != nil {
		p.deps.Logger.Warn("tone probe failed, using default persona", "error", err)
		return p.cfg.DefaultPersona, nil
	}
	if strings.Contains(strings.ToLower(answer), "informal") {
		return p.cfg.InformalPersona, nil
	}
	return p.cfg.DefaultPersona, nil
}

// summarize produces the short incoming-email summary shown in the
// notification. Failure yields "" rather than blocking the draft.
func (p *Pipeline) summarize(ctx context.Context, emailText string) string {
	prompt := "Summarize the following email in one short sentence, in the email's own language:\n\n\"\"\"\n" +
		emailText + "\n\"\"\""
	summary, err := p.deps.LLM.Generate(ctx, prompt, summaryTemperature)
	if err != nil {
		p.deps.Logger.Warn("summary generation failed", "error", err)
		return ""
	}
	return strings.TrimSpace(summary)
}

// ApproveDraft claims the draft and sends it as a threaded reply. The
// claim happens first; if sending then fails the draft stays approved and
// the error surfaces to the caller rather than risking a double send.
func (p *Pipeline) ApproveDraft(ctx context.Context, draftID string) (models.PendingDraft, error) {
	claimed, err := p.deps.Store.ClaimDraft(ctx, draftID, models.DraftApproved)
	if err != nil {
		return models.PendingDraft{}, err
	}

	err = p.deps.Mailer.Send(ctx, mail.OutgoingMessage{
		Recipient: claimed.Recipient,
		Subject:   claimed.Subject,
		Body:      claimed.Body,
		ThreadID:  claimed.ThreadID,
		InReplyTo: claimed.OriginalMessageID,
	})
	if err != nil {
		return models.PendingDraft{}, fmt.Errorf("draft %s approved but sending failed: %w", draftID, err)
	}

	p.deps.Logger.Info("draft approved and sent", "draft_id", draftID)
	return claimed, nil
}

// RejectDraft claims the draft as rejected.
func (p *Pipeline) RejectDraft(ctx context.Context, draftID string) (models.PendingDraft, error) {
	claimed, err := p.deps.Store.ClaimDraft(ctx, draftID, models.DraftRejected)
	if err != nil {
		return models.PendingDraft{}, err
	}
	p.deps.Logger.Info("draft rejected", "draft_id", draftID)
	return claimed, nil
}
