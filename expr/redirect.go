// expr/redirect.go

// Package expr compiles the configured redirect expression once at load time
// and evaluates it per blocked request.
package expr

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/gateguard/gateguard/model"
)

// Redirect is a compiled CEL expression producing a redirect target URL.
// Request variables exposed: ip, host, path, method, headers.
type Redirect struct {
	source  string
	program cel.Program
}

// CompileRedirect parses and checks the expression. Compilation errors are
// configuration errors and surface at startup, never at request time.
func CompileRedirect(source string) (*Redirect, error) {
	env, err := cel.NewEnv(
		cel.Variable("ip", cel.StringType),
		cel.Variable("host", cel.StringType),
		cel.Variable("path", cel.StringType),
		cel.Variable("method", cel.StringType),
		cel.Variable("headers", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create expression environment: %w", err)
	}

	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("cannot parse redirect expression %q: %w", source, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.StringType) {
		return nil, fmt.Errorf("redirect expression %q must produce a string, got %s",
			source, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("cannot build redirect expression %q: %w", source, err)
	}

	return &Redirect{source: source, program: program}, nil
}

// Source returns the original expression text.
func (r *Redirect) Source() string {
	return r.source
}

// Eval produces the redirect target for one request.
func (r *Redirect) Eval(req *model.RequestContext) (string, error) {
	headers := req.Headers
	if headers == nil {
		headers = map[string]string{}
	}

	out, _, err := r.program.Eval(map[string]interface{}{
		"ip":      req.ClientIP,
		"host":    req.Host,
		"path":    req.Path,
		"method":  req.Method,
		"headers": headers,
	})
	if err != nil {
		return "", fmt.Errorf("cannot evaluate redirect expression: %w", err)
	}

	target, ok := out.Value().(string)
	if !ok {
		return "", fmt.Errorf("redirect expression produced %T, want string", out.Value())
	}
	return target, nil
}
