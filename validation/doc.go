// Package validation validates configuration structs.
//
// Struct tag validation uses go-playground/validator with two extra tags,
// k8s_namespace and k8s_selector, checked with the Kubernetes apimachinery
// rules:
//
//	type Settings struct {
//	    Namespace string `mapstructure:"namespace" validate:"k8s_namespace"`
//	    Labels    string `mapstructure:"labels" validate:"k8s_selector"`
//	    BindPort  int    `mapstructure:"bind_port" validate:"min=1,max=65535"`
//	}
//	err := validation.Validate(settings)
//
// Cross-field checks use the programmatic Validator:
//
//	v := validation.New()
//	v.Custom(port+portRange <= 65535, "port_range", "exceeds 65535")
//	err := v.Validate()
//
// Both report a CONFIGURATION_ERROR AppError whose "fields" detail lists
// every failure.
package validation
