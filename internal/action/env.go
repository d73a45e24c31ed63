package action

import "strings"

// DockerHostVar points the compose tool at a remote daemon.
const DockerHostVar = "DOCKER_HOST"

// baseEnv is always forwarded. The compose tool needs PATH to find docker
// and its helpers, and HOME to find the docker config and CLI plugins.
var baseEnv = []string{"PATH", "HOME"}

// buildEnvironment returns the environment for a compose invocation.
//
// The result holds only the baseEnv keys, DOCKER_HOST when it is set, and
// the passEnv keys, each when present in environ. It is never nil, so the
// subprocess does not inherit the rest of the environment.
func buildEnvironment(environ []string, passEnv []string) []string {
	env := []string{}
	seen := make(map[string]bool)
	add := func(key string) {
		if seen[key] {
			return
		}
		seen[key] = true
		if v, ok := lookupEnv(environ, key); ok && v != "" {
			env = append(env, key+"="+v)
		}
	}

	for _, key := range baseEnv {
		add(key)
	}
	add(DockerHostVar)
	for _, key := range passEnv {
		add(key)
	}
	return env
}

// lookupEnv finds key in a KEY=VALUE list. The last entry wins, matching
// os/exec.
func lookupEnv(environ []string, key string) (string, bool) {
	prefix := key + "="
	value, found := "", false
	for _, kv := range environ {
		if strings.HasPrefix(kv, prefix) {
			value, found = kv[len(prefix):], true
		}
	}
	return value, found
}
