// Package action runs compose lifecycle commands against a project.
//
// An Action is a verb plus an optional service. Each Action resolves to one
// Kind from a closed set, and each Kind owns the argument vector handed to
// the compose tool.
package action

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/fyrsmithlabs/composed/internal/compose"
)

var (
	// ErrInvalidVerb indicates the verb is not a lowercase word.
	ErrInvalidVerb = errors.New("invalid action")

	// ErrInvalidService indicates the service name is not a legal compose
	// service name.
	ErrInvalidService = errors.New("invalid service name")
)

var verbPattern = regexp.MustCompile(`^[a-z]+(-[a-z]+)*$`)

// Kind is the resolved variant of an Action.
type Kind int

const (
	// KindVerbatim passes the verb (and service) through unchanged.
	KindVerbatim Kind = iota
	// KindUp starts containers detached.
	KindUp
	// KindCreate creates containers without starting them.
	KindCreate
	// KindBuildService rebuilds one service, pulling newer base images.
	KindBuildService
	// KindRemoveService stops and removes one service's containers.
	KindRemoveService
)

func (k Kind) String() string {
	switch k {
	case KindUp:
		return "up"
	case KindCreate:
		return "create"
	case KindBuildService:
		return "build-service"
	case KindRemoveService:
		return "rm-service"
	default:
		return "verbatim"
	}
}

// Action is a compose verb, optionally scoped to one service.
type Action struct {
	Verb    string
	Service string
}

// New validates verb and service and returns the Action.
func New(verb, service string) (Action, error) {
	if !verbPattern.MatchString(verb) {
		return Action{}, fmt.Errorf("%w: %q", ErrInvalidVerb, verb)
	}
	if service != "" && !compose.ValidServiceName(service) {
		return Action{}, fmt.Errorf("%w: %q", ErrInvalidService, service)
	}
	return Action{Verb: verb, Service: service}, nil
}

// Kind resolves the variant. build and rm are only special when scoped to
// a service.
func (a Action) Kind() Kind {
	switch a.Verb {
	case "up":
		return KindUp
	case "create":
		return KindCreate
	case "build":
		if a.Service != "" {
			return KindBuildService
		}
	case "rm":
		if a.Service != "" {
			return KindRemoveService
		}
	}
	return KindVerbatim
}

// Args returns the argument vector for the compose tool.
func (a Action) Args() []string {
	var args []string
	switch a.Kind() {
	case KindUp:
		args = []string{"up", "-d"}
	case KindCreate:
		args = []string{"up", "--no-start"}
	case KindBuildService:
		args = []string{"build", "--pull"}
	case KindRemoveService:
		args = []string{"rm", "--force", "--stop"}
	default:
		args = []string{a.Verb}
	}
	if a.Service != "" {
		args = append(args, a.Service)
	}
	return args
}

// String formats the action for logs.
func (a Action) String() string {
	if a.Service == "" {
		return a.Verb
	}
	return a.Verb + " " + a.Service
}
