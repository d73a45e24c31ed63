package bundle

import (
	"strings"

	"github.com/fyrsmithlabs/composed/internal/compose"
)

// ResolveContainerName maps a service to the container name compose gave
// it under the legacy (v1) naming scheme:
//
//   - an explicit container_name wins
//   - a project with a single service uses the bare service name
//   - otherwise <project>_<service>_1, with the project lowercased
//
// Only replica 1 of a scaled service is considered.
func ResolveContainerName(projectName string, svc compose.Service, serviceCount int) string {
	if name := svc.ContainerName(); name != "" {
		return name
	}
	if serviceCount < 2 {
		return svc.Name
	}
	return strings.ToLower(projectName) + "_" + svc.Name + "_1"
}

// containerCandidates returns the names to try for svc, most likely first.
// With hyphen set, the compose v2 name <project>-<service>-1 is tried after
// the legacy name unless the service has an explicit container_name.
func containerCandidates(projectName string, svc compose.Service, serviceCount int, hyphen bool) []string {
	primary := ResolveContainerName(projectName, svc, serviceCount)
	if !hyphen || svc.ContainerName() != "" {
		return []string{primary}
	}
	return []string{primary, strings.ToLower(projectName) + "-" + svc.Name + "-1"}
}
