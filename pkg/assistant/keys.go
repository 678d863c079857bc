package assistant

// Node names.
const (
	NodePrompt                = "prompt"
	NodeCheckSafety           = "check_safety"
	NodeUnsafeResponse        = "unsafe_response"
	NodeDecideMode            = "decide_mode"
	NodeUpdateProjectName     = "update_project_name"
	NodeRunEligibilityCheck   = "run_eligibility_check"
	NodeUploadIFCFile         = "upload_ifc_file"
	NodeUploadStructuralNotes = "upload_structural_notes"
	NodeUnknownIntent         = "unknown_intent"
)

// Modes recognized by decide_mode, in evaluation order.
const (
	ModeUpdateProjectName     = NodeUpdateProjectName
	ModeRunEligibilityCheck   = NodeRunEligibilityCheck
	ModeUploadIFCFile         = NodeUploadIFCFile
	ModeUploadStructuralNotes = NodeUploadStructuralNotes
	ModeUnknown               = "unknown"
)

// Modes lists the recognized modes in the order decide_mode checks them.
var Modes = []string{
	ModeUpdateProjectName,
	ModeRunEligibilityCheck,
	ModeUploadIFCFile,
	ModeUploadStructuralNotes,
}

// State keys.
const (
	KeyInput           = "input"
	KeyAwaitingInput   = "awaiting_input"
	KeySafe            = "safe"
	KeyMode            = "mode"
	KeyResponse        = "response"
	KeyProjectName     = "project_name"
	KeyEligibility     = "eligibility"
	KeyIFCFile         = "ifc_file"
	KeyStructuralNotes = "structural_notes"
)

// Canned responses for nodes whose collaborator did not supply one.
const (
	ResponseUnsafe        = "I can't help with that request."
	ResponseUnknownIntent = "Sorry, I didn't understand. I can rename the project, run an eligibility check, or take an IFC file or structural notes."
	ResponseNotConfigured = "That action is not available right now."
)
