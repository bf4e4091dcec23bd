package docker

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"

	"imagepub/internal/config"
)

// ---- Env / redaction ----

func redactBuildArgs(args []string) []string {
	// broaden secret heuristics
	sus := func(k string) bool {
		k = strings.ToUpper(k)
		return strings.Contains(k, "PASSWORD") ||
			strings.Contains(k, "TOKEN") ||
			strings.Contains(k, "SECRET") ||
			k == "DOCKER_AUTH_CONFIG" ||
			k == "AWS_SECRET_ACCESS_KEY" ||
			k == "AWS_SESSION_TOKEN" ||
			k == "GITHUB_TOKEN" || k == "GH_TOKEN" ||
			k == "GOOGLE_APPLICATION_CREDENTIALS" ||
			k == "KUBECONFIG"
	}
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i++ {
		if out[i] == "--build-arg" {
			kv := out[i+1]
			if eq := strings.IndexByte(kv, '='); eq > 0 {
				key := kv[:eq]
				val := kv[eq+1:]
				if sus(key) && val != "" {
					out[i+1] = key + "=REDACTED"
				}
			}
		}
	}
	return out
}

// ---- Ref validation ----

// validateRefs rejects names docker would refuse before anything runs.
func validateRefs(opts *Options) error {
	if _, err := reference.ParseNormalizedNamed(opts.ImageName); err != nil {
		return &config.ValidationError{Field: "image_name", Msg: fmt.Sprintf("%q is not a valid image reference: %v", opts.ImageName, err)}
	}
	if strings.Contains(opts.UserName, "/") || strings.Contains(opts.UserName, ":") {
		return &config.ValidationError{Field: "user_name", Msg: fmt.Sprintf("%q must be a single path component", opts.UserName)}
	}
	tagged := opts.TaggedName()
	if _, err := reference.ParseNormalizedNamed(tagged); err != nil {
		return &config.ValidationError{Field: "user_name/image_name", Msg: fmt.Sprintf("%q is not a valid image reference: %v", tagged, err)}
	}
	return nil
}

// first non-empty
func first(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
