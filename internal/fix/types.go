package fix

// Kind tags the operation an Action performs.
type Kind string

const (
	// KindRunCommand executes a shell command, or prints guidance when the
	// action is advisory.
	KindRunCommand Kind = "run_command"
	// KindEditFile writes content to a file.
	KindEditFile Kind = "edit_file"
	// KindInstallPackage installs a package via the detected package manager.
	KindInstallPackage Kind = "install_package"
	// KindChangePermission marks a file executable.
	KindChangePermission Kind = "change_permission"
	// KindUpdateConfig writes content to a configuration file.
	KindUpdateConfig Kind = "update_config"
)

// Action is an inspectable remediation step: a kind tag plus the structured
// parameters the Applier needs to interpret it. Unused fields stay zero.
type Action struct {
	Kind Kind `json:"kind"`

	// Command is the shell command for KindRunCommand.
	Command string `json:"command,omitempty"`

	// Dir is the working directory for command execution.
	Dir string `json:"dir,omitempty"`

	// Package is the module name for KindInstallPackage.
	Package string `json:"package,omitempty"`

	// Path is the target file for permission and file actions.
	Path string `json:"path,omitempty"`

	// Content is the file content for KindEditFile and KindUpdateConfig.
	Content string `json:"content,omitempty"`

	// Advisory is guidance printed instead of executing anything. An
	// advisory run_command action has Command empty and Advisory set.
	Advisory string `json:"advisory,omitempty"`
}

// Fix is a candidate remediation.
type Fix struct {
	// Description is the human-readable summary shown to the user.
	Description string `json:"description"`

	// Confidence is a fixed per-rule policy constant in [0,1].
	Confidence float64 `json:"confidence"`

	// Action is the deferred operation, executed at most once per apply.
	Action Action `json:"action"`
}
