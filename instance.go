package featx

import (
	"iter"
	"log/slog"

	"github.com/happyhackingspace/featx/nlp"
	"github.com/happyhackingspace/featx/template"
)

// Extraction stages recorded in Context.Stage.
const (
	StageFrameID = "FrameId"
	StageRoleID  = "RoleId"
)

// Arg is a role filler of a frame.
type Arg struct {
	Role string
	Span nlp.Span
}

// Frame is a frame evoked by a target span.
type Frame struct {
	Target nlp.Span
	Name   string
	Args   []Arg
}

// Instance is an annotated sentence.
type Instance struct {
	ID       string
	URL      string
	Sentence *nlp.Tokens
	Frames   []Frame
}

// Unit identifies one extraction unit of an Instance. Role and Arg are
// set only for StageRoleID units.
type Unit struct {
	Stage  string   `json:"stage"`
	Frame  string   `json:"frame"`
	Target nlp.Span `json:"target"`
	Role   string   `json:"role,omitempty"`
	Arg    nlp.Span `json:"arg"`
}

// Contexts yields one unit per frame (frame identification) followed by
// one unit per argument (role identification). Before each yield c is
// cleared and populated for that unit; c must not be retained past the
// yield.
func (in *Instance) Contexts(c *template.Context) iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		for _, fr := range in.Frames {
			if !in.frameContext(c, fr) {
				continue
			}
			if !yield(Unit{Stage: StageFrameID, Frame: fr.Name, Target: fr.Target}) {
				return
			}
		}
		for _, fr := range in.Frames {
			for _, a := range fr.Args {
				if !in.roleContext(c, fr, a) {
					continue
				}
				u := Unit{Stage: StageRoleID, Frame: fr.Name, Target: fr.Target, Role: a.Role, Arg: a.Span}
				if !yield(u) {
					return
				}
			}
		}
	}
}

func (in *Instance) frameContext(c *template.Context, fr Frame) bool {
	c.Clear()
	c.SetSentence(in.Sentence)
	c.SetStage(StageFrameID)
	c.SetFrame(fr.Name)
	head := nlp.HeadOf(in.Sentence, fr.Target)
	if err := firstErr(c.SetTarget(fr.Target), c.SetTargetHead(head), c.SetSlot1(fr.Target, head)); err != nil {
		slog.Warn("Skipping frame", "instance", in.ID, "frame", fr.Name, "context", c.Describe(), "error", err)
		return false
	}
	in.setParent(c.SetHead1Parent, head)
	return true
}

func (in *Instance) roleContext(c *template.Context, fr Frame, a Arg) bool {
	c.Clear()
	c.SetSentence(in.Sentence)
	c.SetStage(StageRoleID)
	c.SetFrame(fr.Name)
	c.SetRole(a.Role)
	targetHead := nlp.HeadOf(in.Sentence, fr.Target)
	argHead := nlp.HeadOf(in.Sentence, a.Span)
	err := firstErr(
		c.SetTarget(fr.Target), c.SetTargetHead(targetHead),
		c.SetArg(a.Span), c.SetArgHead(argHead),
		c.SetSlot1(a.Span, argHead), c.SetSlot2(fr.Target, targetHead),
	)
	if err != nil {
		slog.Warn("Skipping argument", "instance", in.ID, "role", a.Role, "context", c.Describe(), "error", err)
		return false
	}
	in.setParent(c.SetHead1Parent, argHead)
	in.setParent(c.SetHead2Parent, targetHead)
	return true
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (in *Instance) setParent(set func(int), head int) {
	deps := in.Sentence.Deps()
	if deps == nil || head < 0 || head >= in.Sentence.Len() {
		return
	}
	set(deps.Head(head))
}
