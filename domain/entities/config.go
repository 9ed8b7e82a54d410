package entities

// DetachPolicy controls what happens to a thread attachment at the end of a call.
type DetachPolicy string

const (
	// DetachNever leaves attached threads attached for their lifetime.
	DetachNever DetachPolicy = "never"
	// DetachAfterCall detaches threads the bridge itself attached once the
	// call completes. Threads that entered from the host are never detached.
	DetachAfterCall DetachPolicy = "after_call"
)

// BridgeConfig represents the bridge settings.
// Every field has a default (see DefaultBridgeConfig); a config file only
// needs to name the fields it overrides.
type BridgeConfig struct {
	// Symbol is the process-wide entry point used to enumerate created VMs.
	Symbol string `json:"symbol" yaml:"symbol" validate:"required,printascii" jsonschema:"description=Entry point enumerating created VM instances,default=JNI_GetCreatedJavaVMs"`

	// Tag is the component name attached to host log messages.
	Tag string `json:"tag" yaml:"tag" validate:"required,max=23" jsonschema:"description=Host log tag,maxLength=23,default=NativeGreetings"`

	// Prefix is prepended to the greeting target.
	Prefix string `json:"prefix" yaml:"prefix" validate:"required" jsonschema:"description=Greeting prefix,default=Hello "`

	// FallbackTarget replaces input that is not valid native text.
	FallbackTarget string `json:"fallback_target" yaml:"fallback_target" validate:"required" jsonschema:"description=Greeting target used when the input cannot be decoded,default=there"`

	// FailurePlaceholder is returned when the VM cannot be located or attached.
	FailurePlaceholder string `json:"failure_placeholder" yaml:"failure_placeholder" validate:"required" jsonschema:"description=Result returned on internal failure"`

	// Detach selects the thread detachment policy.
	Detach DetachPolicy `json:"detach" yaml:"detach" validate:"required,oneof=never after_call" jsonschema:"enum=never,enum=after_call,default=never"`

	// LogClass is the host class providing the static logging method.
	LogClass string `json:"log_class" yaml:"log_class" validate:"required" jsonschema:"description=JNI class name of the log sink,default=android/util/Log"`

	// LogMethod is a static method with signature (ILjava/lang/String;Ljava/lang/String;)I.
	LogMethod string `json:"log_method" yaml:"log_method" validate:"required" jsonschema:"description=Static log method on log_class,default=println"`
}

// DefaultBridgeConfig returns the default bridge configuration.
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		Symbol:             CreatedVMsSymbol,
		Tag:                "NativeGreetings",
		Prefix:             "Hello ",
		FallbackTarget:     "there",
		FailurePlaceholder: "Error in native greeting",
		Detach:             DetachNever,
		LogClass:           "android/util/Log",
		LogMethod:          "println",
	}
}
