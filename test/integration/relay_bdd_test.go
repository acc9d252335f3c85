//go:build integration

package integration

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/secretarylab/relayd/internal/automation"
	"github.com/secretarylab/relayd/internal/classify"
	"github.com/secretarylab/relayd/internal/domain"
	"github.com/secretarylab/relayd/internal/heuristics"
	"github.com/secretarylab/relayd/internal/pipeline"
)

func conversationScreen(input, send *memNode) *memNode {
	children := []*memNode{
		{viewID: "com.whatsapp:id/conversation_title", class: "android.widget.TextView", text: "Alice"},
	}
	if input != nil {
		children = append(children, input)
	}
	if send != nil {
		children = append(children, send)
	}
	return &memNode{class: "android.widget.FrameLayout", children: children}
}

func workingInput() *memNode {
	return &memNode{
		viewID:   "com.whatsapp:id/entry",
		class:    "android.widget.EditText",
		editable: true, setTextOK: true, focusOK: true, pasteOK: true,
	}
}

func workingSend() *memNode {
	return &memNode{
		viewID: "com.whatsapp:id/send",
		class:  "android.widget.ImageButton",
		desc:   "Send", clickOK: true,
	}
}

var _ = Describe("Notification Relay", func() {
	var (
		activator *memActivator
		link      *memLink
		p         *pipeline.Pipeline
	)

	BeforeEach(func() {
		activator = &memActivator{}
		link = &memLink{}
		classifier := classify.NewClassifier(heuristics.NewStore(), zap.NewNop())
		p = pipeline.NewPipeline(
			pipeline.Config{ActivationAttempts: 3, ActivationInterval: time.Millisecond},
			classifier, activator, link, domain.NewSessionState(), zap.NewNop(),
		)
	})

	Context("when a conversational notification arrives", func() {
		It("activates the conversation and relays the message", func() {
			out := p.OnNotification(context.Background(), domain.RawNotification{
				PackageID: "com.whatsapp",
				Key:       "0|com.whatsapp|1",
				Title:     "Alice",
				Text:      "lunch tomorrow?",
			})

			Expect(out.Kind).To(Equal(domain.OutcomeDelivered))
			Expect(activator.activatedKeys()).To(Equal([]string{"0|com.whatsapp|1"}))
			Expect(link.relayedMessages()).To(HaveLen(1))
			Expect(link.relayedMessages()[0].Sender).To(Equal("Alice"))
			Expect(link.relayedMessages()[0].Content).To(Equal("lunch tomorrow?"))
		})
	})

	Context("when a summary notification arrives", func() {
		It("rejects it but still debounces the key", func() {
			ctx := context.Background()
			out := p.OnNotification(ctx, domain.RawNotification{
				PackageID: "com.whatsapp",
				Key:       "0|com.whatsapp|1",
				Title:     "WhatsApp",
				Text:      "5 messages from 3 chats",
			})
			Expect(out.Kind).To(Equal(domain.OutcomeRejected))

			out = p.OnNotification(ctx, domain.RawNotification{
				PackageID: "com.whatsapp",
				Key:       "0|com.whatsapp|1",
				Title:     "Alice",
				Text:      "hello",
			})
			Expect(out.Reason).To(Equal(pipeline.ReasonDuplicate))
			Expect(link.relayedMessages()).To(BeEmpty())
		})
	})

	Context("when the notification is removed and re-posted", func() {
		It("treats the re-post as a new message", func() {
			ctx := context.Background()
			n := domain.RawNotification{
				PackageID: "com.whatsapp",
				Key:       "0|com.whatsapp|1",
				Title:     "Alice",
				Text:      "hello",
			}
			p.OnNotification(ctx, n)
			p.OnNotificationRemoved(n.Key)
			out := p.OnNotification(ctx, n)

			Expect(out.Kind).To(Equal(domain.OutcomeDelivered))
			Expect(link.relayedMessages()).To(HaveLen(2))
		})
	})
})

var _ = Describe("Reply Automation", func() {
	var (
		tree      *memTree
		clipboard *memClipboard
		link      *memLink
		state     *domain.SessionState
		engine    *automation.Engine
	)

	BeforeEach(func() {
		tree = &memTree{}
		clipboard = &memClipboard{}
		link = &memLink{}
		state = domain.NewSessionState()

		gate := automation.NewGate(
			automation.GateConfig{MaxAttempts: 3, Interval: time.Millisecond},
			tree, zap.NewNop(),
		)
		engine = automation.NewEngine(
			automation.Config{
				SettleDelay:   0,
				PreClickDelay: 0,
				ClickAttempts: 3,
				ClickInterval: time.Millisecond,
			},
			gate, tree, clipboard, link, heuristics.NewStore(), state, zap.NewNop(),
		)
	})

	Context("when the conversation screen is ready", func() {
		It("injects the text and clicks send", func() {
			input := workingInput()
			send := workingSend()
			tree.setRoot(conversationScreen(input, send))

			status := engine.SendReply(context.Background(), domain.ReplyRequest{
				Sender: "Alice", Message: "on my way",
			})

			Expect(status).To(Equal(domain.StatusSuccess))
			Expect(input.setTexts).To(Equal([]string{"on my way"}))
			Expect(send.clickCount()).To(Equal(1))
			Expect(link.statusCodes()).To(Equal([]domain.AutomationStatus{
				domain.StatusAttemptingReply, domain.StatusSuccess,
			}))
			Expect(state.ReplyInFlight()).To(BeFalse())
		})
	})

	Context("when a reply run is already in flight", func() {
		It("skips the second request without touching the tree", func() {
			input := workingInput()
			input.setTextOK = false
			input.pasteOK = true
			tree.setRoot(conversationScreen(input, workingSend()))

			// Hold the first run inside the clipboard fallback long enough
			// for a competing request to arrive.
			firstDone := make(chan domain.AutomationStatus, 1)
			var once sync.Once
			inFallback := make(chan struct{})
			slowClipboard := &blockingClipboard{
				inner:   clipboard,
				entered: func() { once.Do(func() { close(inFallback) }) },
				gate:    make(chan struct{}),
			}
			gate := automation.NewGate(
				automation.GateConfig{MaxAttempts: 3, Interval: time.Millisecond},
				tree, zap.NewNop(),
			)
			slowEngine := automation.NewEngine(
				automation.Config{ClickAttempts: 3, ClickInterval: time.Millisecond},
				gate, tree, slowClipboard, link, heuristics.NewStore(), state, zap.NewNop(),
			)

			go func() {
				firstDone <- slowEngine.SendReply(context.Background(), domain.ReplyRequest{
					Sender: "Alice", Message: "first",
				})
			}()
			Eventually(inFallback).Should(BeClosed())

			status := slowEngine.SendReply(context.Background(), domain.ReplyRequest{
				Sender: "Alice", Message: "second",
			})
			Expect(status).To(Equal(domain.StatusSkippedInProgress))

			close(slowClipboard.gate)
			Eventually(firstDone).Should(Receive(Equal(domain.StatusSuccess)))
			Expect(link.statusCodes()).To(ContainElement(domain.StatusSkippedInProgress))
		})
	})

	Context("when the UI never stabilizes", func() {
		It("fails without injecting anything", func() {
			tree.setRoot(nil)

			status := engine.SendReply(context.Background(), domain.ReplyRequest{
				Sender: "Alice", Message: "hi",
			})

			Expect(status).To(Equal(domain.StatusFailedUINotReady))
			Expect(state.ReplyInFlight()).To(BeFalse())
		})
	})

	Context("when the input field cannot be found", func() {
		It("reports failure and leaves the screen untouched", func() {
			send := workingSend()
			tree.setRoot(conversationScreen(nil, send))

			status := engine.SendReply(context.Background(), domain.ReplyRequest{
				Sender: "Alice", Message: "hi",
			})

			Expect(status).To(Equal(domain.StatusFailedInputNotFound))
			Expect(send.clickCount()).To(BeZero())
		})
	})
})

// blockingClipboard stalls inside SetText until its gate opens, so specs can
// observe an in-flight run.
type blockingClipboard struct {
	inner   *memClipboard
	entered func()
	gate    chan struct{}
}

func (b *blockingClipboard) SetText(ctx context.Context, label, text string) error {
	b.entered()
	<-b.gate
	return b.inner.SetText(ctx, label, text)
}
