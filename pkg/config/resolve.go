package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/packsync/packsync/pkg/engine"
)

// DeploymentRootEnv is the environment variable consulted when the workspace
// file does not pin a deployment root.
const DeploymentRootEnv = "PACKSYNC_DEPLOYMENT_ROOT"

// ResolveDeploymentRoot determines the deployment root for a workspace.
// Precedence: explicit configuration, then the environment variable, then
// the platform default. An unresolvable root is a config-class error; no
// cycle may start without one.
func ResolveDeploymentRoot(workspace WorkspaceConfig) (engine.Deployment, error) {
	if workspace.DeploymentRoot != "" {
		return engine.Deployment{Root: workspace.DeploymentRoot}, nil
	}
	if root := os.Getenv(DeploymentRootEnv); root != "" {
		return engine.Deployment{Root: root}, nil
	}
	if root := platformDefaultRoot(); root != "" {
		if _, err := os.Stat(root); err == nil {
			return engine.Deployment{Root: root}, nil
		}
	}
	return engine.Deployment{}, engine.NewConfigError(
		"no deployment root resolvable: set workspace.deploymentRoot or "+DeploymentRootEnv, nil)
}

// platformDefaultRoot returns the game's data directory where the platform
// has a conventional one.
func platformDefaultRoot() string {
	if runtime.GOOS != "windows" {
		return ""
	}
	localAppData := os.Getenv("LOCALAPPDATA")
	if localAppData == "" {
		return ""
	}
	return filepath.Join(localAppData,
		"Packages", "Microsoft.MinecraftUWP_8wekyb3d8bbwe", "LocalState", "games", "com.mojang")
}

// ResolveLibrariesRoot determines the shared libraries directory, defaulting
// to "libraries" under the workspace root.
func ResolveLibrariesRoot(workspace WorkspaceConfig, workspaceRoot string) string {
	root := workspace.LibrariesRoot
	if root == "" {
		root = "libraries"
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(workspaceRoot, root)
	}
	return root
}
