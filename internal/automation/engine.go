package automation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/secretarylab/relayd/internal/domain"
	"github.com/secretarylab/relayd/internal/heuristics"
	"github.com/secretarylab/relayd/internal/uitree"
)

// Config holds the engine's timing and retry policy.
type Config struct {
	SettleDelay   time.Duration // after injection / before paste
	PreClickDelay time.Duration // right before clicking send
	ClickAttempts int
	ClickInterval time.Duration
}

// DefaultConfig returns the production timing policy.
func DefaultConfig() Config {
	return Config{
		SettleDelay:   500 * time.Millisecond,
		PreClickDelay: 100 * time.Millisecond,
		ClickAttempts: 3,
		ClickInterval: 500 * time.Millisecond,
	}
}

// Engine orchestrates one reply automation run at a time against the foreign
// UI. Runs are strictly serialized through the session state's in-flight
// flag; a second request while one is executing is refused at admission.
type Engine struct {
	config     Config
	gate       *Gate
	trees      domain.TreeProvider
	clipboard  domain.Clipboard
	link       domain.AgentLink
	heuristics *heuristics.Store
	state      *domain.SessionState
	logger     *zap.Logger
}

// NewEngine creates a reply automation engine.
func NewEngine(
	config Config,
	gate *Gate,
	trees domain.TreeProvider,
	clipboard domain.Clipboard,
	link domain.AgentLink,
	hs *heuristics.Store,
	state *domain.SessionState,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		config:     config,
		gate:       gate,
		trees:      trees,
		clipboard:  clipboard,
		link:       link,
		heuristics: hs,
		state:      state,
		logger:     logger,
	}
}

// SendReply runs the automation state machine for one reply request and
// returns its terminal status. Every status is also emitted to the
// decision-maker the moment it is known. The run executes on the calling
// goroutine; admission is the only step other goroutines can observe.
func (e *Engine) SendReply(ctx context.Context, req domain.ReplyRequest) domain.AutomationStatus {
	runID := uuid.NewString()

	if !e.state.BeginReply() {
		e.logger.Warn("reply already in progress, skipping",
			zap.String("run_id", runID),
			zap.String("sender", req.Sender))
		e.emit(runID, domain.StatusSkippedInProgress)
		return domain.StatusSkippedInProgress
	}

	return e.run(ctx, runID, req)
}

// run executes the linear machine: WaitingForStableUi -> LocatingInput ->
// InjectingText -> LocatingSendButton -> Clicking -> terminal. The in-flight
// flag is cleared and acquired root handles are released on every exit path,
// panics included.
func (e *Engine) run(ctx context.Context, runID string, req domain.ReplyRequest) (status domain.AutomationStatus) {
	defer e.state.EndReply()
	defer func() {
		if r := recover(); r != nil {
			status = domain.FailedException(fmt.Sprint(r))
			e.logger.Error("reply run panicked",
				zap.String("run_id", runID),
				zap.Any("panic", r))
			e.emit(runID, status)
		}
	}()

	e.logger.Info("reply run started",
		zap.String("run_id", runID),
		zap.String("sender", req.Sender))
	e.emit(runID, domain.StatusAttemptingReply)

	root, ok := e.gate.WaitStable(ctx)
	if !ok {
		return e.fail(runID, domain.StatusFailedUINotReady)
	}
	defer root.Release()

	set := e.heuristics.Get()

	if e.logger.Core().Enabled(zapcore.DebugLevel) {
		e.logger.Debug("tree before element search",
			zap.String("run_id", runID),
			zap.String("tree", uitree.Dump(root)))
	}

	e.checkChatTitle(runID, root, req.Sender, set)

	input := e.locateInput(root, set)
	if input == nil {
		e.dumpTree(runID, root)
		return e.fail(runID, domain.StatusFailedInputNotFound)
	}
	defer input.Release()

	if !input.Editable() {
		e.dumpTree(runID, root)
		return e.fail(runID, domain.StatusFailedInputNotEditable)
	}

	if failed := e.injectText(ctx, runID, root, input, req.Message); failed != "" {
		return e.fail(runID, failed)
	}
	e.sleep(ctx, e.config.SettleDelay)

	// The UI may have changed since input discovery (send affordance only
	// appears once the field has text), so the send phase gets a fresh root.
	sendRoot := e.trees.Root(ctx)
	if sendRoot == nil {
		return e.fail(runID, domain.StatusFailedNullRootForSend)
	}
	defer sendRoot.Release()

	send := e.locateSendButton(sendRoot, set)
	if send == nil {
		e.dumpTree(runID, sendRoot)
		return e.fail(runID, domain.StatusFailedSendNotFound)
	}
	defer send.Release()

	e.logger.Debug("send button located",
		zap.String("run_id", runID),
		zap.Bool("enabled", send.Enabled()),
		zap.Bool("clickable", send.Clickable()))
	e.sleep(ctx, e.config.PreClickDelay)

	if !e.clickWithRetry(ctx, send) {
		return e.fail(runID, domain.StatusFailedClickSend)
	}

	e.logger.Info("reply sent", zap.String("run_id", runID), zap.String("sender", req.Sender))
	e.emit(runID, domain.StatusSuccess)
	return domain.StatusSuccess
}

// locateInput finds the message input field: known IDs first, then placeholder
// text, then content description. The caller owns the returned handle.
func (e *Engine) locateInput(root domain.Node, set heuristics.Set) domain.Node {
	if input := uitree.FindFirstByID(root, set.InputFieldIDs...); input != nil {
		return input
	}
	for _, placeholder := range set.InputPlaceholders {
		if input := firstOwned(uitree.FindAllByText(root, placeholder)); input != nil {
			return input
		}
	}
	for _, placeholder := range set.InputPlaceholders {
		if input := firstOwned(uitree.FindAllByDescription(root, placeholder)); input != nil {
			return input
		}
	}
	return nil
}

// injectText sets the reply text on the input field, falling back to
// clipboard + focus + paste. Returns the failure status, or empty on success.
func (e *Engine) injectText(ctx context.Context, runID string, root, input domain.Node, message string) domain.AutomationStatus {
	if input.SetText(message) {
		e.logger.Debug("text set directly", zap.String("run_id", runID))
		return ""
	}

	e.logger.Warn("direct set-text failed, trying clipboard paste",
		zap.String("run_id", runID))
	if err := e.clipboard.SetText(ctx, "reply", message); err != nil {
		e.logger.Error("clipboard write failed",
			zap.String("run_id", runID),
			zap.Error(err))
		e.dumpTree(runID, root)
		return domain.StatusFailedSetTextOrPaste
	}
	if !input.Focus() {
		return domain.StatusFailedFocusForPaste
	}
	// Let focus and the clipboard settle before pasting.
	e.sleep(ctx, e.config.SettleDelay)
	if !input.Paste() {
		e.dumpTree(runID, root)
		return domain.StatusFailedSetTextOrPaste
	}
	e.logger.Debug("text pasted via clipboard fallback", zap.String("run_id", runID))
	return ""
}

// locateSendButton finds the send affordance: known IDs, then description,
// then a scan of generic buttons whose text or description carries the send
// label. The caller owns the returned handle.
func (e *Engine) locateSendButton(root domain.Node, set heuristics.Set) domain.Node {
	if send := uitree.FindFirstByID(root, set.SendButtonIDs...); send != nil {
		return send
	}
	if send := firstOwned(uitree.FindAllByDescription(root, set.SendButtonLabel)); send != nil {
		return send
	}

	label := strings.ToLower(set.SendButtonLabel)
	buttons := uitree.FindAllByClass(root, set.ButtonClass)
	for i, b := range buttons {
		if strings.Contains(strings.ToLower(b.Text()), label) ||
			strings.Contains(strings.ToLower(b.Description()), label) {
			uitree.ReleaseAll(buttons[i+1:])
			return b
		}
		b.Release()
	}
	return nil
}

// checkChatTitle verifies the visible conversation identity against the
// expected sender. Warn-only: it annotates the run, never blocks it.
func (e *Engine) checkChatTitle(runID string, root domain.Node, sender string, set heuristics.Set) {
	title := uitree.FindFirstByID(root, set.ChatTitleIDs...)
	if title == nil {
		title = e.titleFromToolbar(root, set)
	}
	if title == nil {
		e.logger.Warn("chat title not found, proceeding anyway",
			zap.String("run_id", runID))
		e.emit(runID, domain.StatusWarningChatTitle)
		return
	}
	defer title.Release()
	e.logger.Debug("chat title detected",
		zap.String("run_id", runID),
		zap.String("title", title.Text()),
		zap.String("expected_sender", sender))
}

// titleFromToolbar is the fallback identity heuristic: the first non-empty
// text view inside the first toolbar.
func (e *Engine) titleFromToolbar(root domain.Node, set heuristics.Set) domain.Node {
	toolbars := uitree.FindAllByClass(root, set.ToolbarClass)
	if len(toolbars) == 0 {
		return nil
	}
	defer uitree.ReleaseAll(toolbars[1:])
	toolbar := toolbars[0]
	defer toolbar.Release()

	views := uitree.FindAllByClass(toolbar, set.TextViewClass)
	for i, v := range views {
		if v.Text() != "" {
			uitree.ReleaseAll(views[i+1:])
			return v
		}
		v.Release()
	}
	return nil
}

// clickWithRetry performs the click with bounded retry, stopping at the first
// success.
func (e *Engine) clickWithRetry(ctx context.Context, target domain.Node) bool {
	for attempt := 1; attempt <= e.config.ClickAttempts; attempt++ {
		if target.Click() {
			e.logger.Debug("click succeeded", zap.Int("attempt", attempt))
			return true
		}
		e.logger.Warn("click attempt failed", zap.Int("attempt", attempt))
		if attempt < e.config.ClickAttempts {
			if !e.sleep(ctx, e.config.ClickInterval) {
				e.logger.Warn("reply canceled during click retry",
					zap.Int("attempt", attempt))
				return false
			}
		}
	}
	return false
}

// fail emits and returns a terminal failure status.
func (e *Engine) fail(runID string, code domain.AutomationStatus) domain.AutomationStatus {
	e.logger.Error("reply run failed",
		zap.String("run_id", runID),
		zap.String("status", string(code)))
	e.emit(runID, code)
	return code
}

func (e *Engine) emit(runID string, code domain.AutomationStatus) {
	e.link.ReplyStatus(runID, code)
}

func (e *Engine) dumpTree(runID string, root domain.Node) {
	e.logger.Error("element search exhausted, dumping tree",
		zap.String("run_id", runID),
		zap.String("tree", uitree.Dump(root)))
}

// sleep waits on the run's own goroutine. Returns false when the request was
// canceled before the wait elapsed, so retry loops stop instead of spinning.
// The event delivery path never runs through here.
func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// firstOwned keeps the first handle of a search result and releases the rest.
func firstOwned(nodes []domain.Node) domain.Node {
	if len(nodes) == 0 {
		return nil
	}
	uitree.ReleaseAll(nodes[1:])
	return nodes[0]
}
