package assistant

import (
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/dsl"
	"github.com/aretw0/waypoint/pkg/registry"
	"github.com/aretw0/waypoint/pkg/router"
	"github.com/aretw0/waypoint/pkg/schema"
)

// Leaves are the nodes that hand control back to prompt.
var Leaves = []string{
	NodeUpdateProjectName,
	NodeRunEligibilityCheck,
	NodeUploadIFCFile,
	NodeUploadStructuralNotes,
	NodeUnknownIntent,
	NodeUnsafeResponse,
}

// Handlers builds the handler for every assistant node.
func Handlers(c Collaborators) map[string]domain.Handler {
	return map[string]domain.Handler{
		NodePrompt:                Prompt(c.Input),
		NodeCheckSafety:           CheckSafety(c.Safety),
		NodeUnsafeResponse:        Fallback(c.Notifier, ReasonUnsafe, ResponseUnsafe),
		NodeDecideMode:            DecideMode(c.Intents),
		NodeUpdateProjectName:     Action(NodeUpdateProjectName, projectNameAction(c.ProjectName), "Project name updated."),
		NodeRunEligibilityCheck:   Action(NodeRunEligibilityCheck, eligibilityAction(c.Eligibility), "Eligibility check complete."),
		NodeUploadIFCFile:         Action(NodeUploadIFCFile, ingestAction(c.IFCFiles, FileIFC), "IFC file received."),
		NodeUploadStructuralNotes: Action(NodeUploadStructuralNotes, ingestAction(c.StructuralNotes, FileStructuralNotes), "Structural notes received."),
		NodeUnknownIntent:         Fallback(c.Notifier, ReasonUnknownIntent, ResponseUnknownIntent),
	}
}

// Register adds every assistant handler to reg under its node name, so graph
// documents can be bound to the assistant's collaborators.
func Register(reg *registry.Registry, c Collaborators) error {
	if err := c.validate(); err != nil {
		return err
	}
	for name, h := range Handlers(c) {
		reg.Register(name, h)
	}
	return nil
}

// WriteContracts returns the keys each node must leave in State.
func WriteContracts() map[string]schema.Schema {
	return map[string]schema.Schema{
		NodeCheckSafety: {KeySafe: schema.Bool()},
		NodeDecideMode:  {KeyMode: schema.String()},
	}
}

// Define declares the assistant topology on b.
func Define(b *dsl.Builder, c Collaborators) {
	h := Handlers(c)
	contracts := WriteContracts()

	b.Add(NodePrompt).
		Describe("Entry point; receives the next user message.").
		Do(h[NodePrompt]).
		Go(NodeCheckSafety)

	b.Add(NodeCheckSafety).
		Describe("Classifies the message as safe or unsafe.").
		Do(h[NodeCheckSafety]).
		Writes(contracts[NodeCheckSafety]).
		When(NodeDecideMode, domain.Eq(KeySafe, true)).
		Otherwise(NodeUnsafeResponse)

	b.Add(NodeUnsafeResponse).
		Describe("Refuses the message.").
		Do(h[NodeUnsafeResponse])

	decide := b.Add(NodeDecideMode).
		Describe("Classifies the message intent.").
		Do(h[NodeDecideMode]).
		Writes(contracts[NodeDecideMode])
	for _, mode := range Modes {
		decide.When(mode, domain.Eq(KeyMode, mode))
	}
	decide.Otherwise(NodeUnknownIntent)

	b.Add(NodeUpdateProjectName).Describe("Renames the project.").Do(h[NodeUpdateProjectName])
	b.Add(NodeRunEligibilityCheck).Describe("Runs the eligibility check.").Do(h[NodeRunEligibilityCheck])
	b.Add(NodeUploadIFCFile).Describe("Accepts an IFC model file.").Do(h[NodeUploadIFCFile])
	b.Add(NodeUploadStructuralNotes).Describe("Accepts structural notes.").Do(h[NodeUploadStructuralNotes])
	b.Add(NodeUnknownIntent).Describe("Answers messages no mode matched.").Do(h[NodeUnknownIntent])

	b.Converge(Leaves, NodePrompt)
}

// NewGraph builds the assistant graph. Build it once and share it between
// sessions.
func NewGraph(c Collaborators, opts ...router.Option) (*router.Graph, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	b := dsl.New()
	Define(b, c)
	return b.Build(append([]router.Option{router.WithEntry(NodePrompt)}, opts...)...)
}
