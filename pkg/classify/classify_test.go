package classify

import "testing"

func TestClassifyRoles(t *testing.T) {
	tests := []struct {
		path string
		want Role
	}{
		{"behavior_pack/scripts/main.js", RoleCompiledArtifact},
		{"behavior_pack/scripts/util.mjs", RoleCompiledArtifact},
		{"behavior_pack/tscripts/main.ts", RoleSourceModule},
		{"behavior_pack/tscripts/types.mts", RoleSourceModule},
		{"behavior_pack/manifest.json", RoleAsset},
		{"resource_pack/texts/en_US.lang", RoleAsset},
		{"resource_pack/textures/blocks/dirt.png", RoleAsset},
		{"resource_pack/sounds/ambient.ogg", RoleAsset},
		{"behavior_pack/functions/tick.mcfunction", RoleAsset},
		{"behavior_pack/scripts/main.js.map", RoleIgnorable},
		{"behavior_pack/tsconfig.json.tmp", RoleIgnorable},
		{".DS_Store", RoleIgnorable},
		{"behavior_pack/.mcattributes", RoleIgnorable},
		{"behavior_pack/readme", RoleIgnorable},
		{"", RoleIgnorable},
		{".", RoleIgnorable},
	}

	for _, tt := range tests {
		if got := Classify(tt.path); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestClassifyCaseInsensitiveExtensions(t *testing.T) {
	if got := Classify("textures/ICON.PNG"); got != RoleAsset {
		t.Errorf("Classify uppercase extension = %s, want %s", got, RoleAsset)
	}
	if got := Classify("scripts/Main.JS"); got != RoleCompiledArtifact {
		t.Errorf("Classify uppercase extension = %s, want %s", got, RoleCompiledArtifact)
	}
}

func TestIsExcluded(t *testing.T) {
	exclusions := NewDirSet("tscripts", "typescripts")

	if !IsExcluded("tscripts", exclusions) {
		t.Error("expected tscripts to be excluded")
	}
	if !IsExcluded("typescripts", exclusions) {
		t.Error("expected typescripts to be excluded")
	}
	if IsExcluded("scripts", exclusions) {
		t.Error("scripts must not be excluded")
	}
	if IsExcluded("tscripts", nil) {
		t.Error("nil exclusion set must exclude nothing")
	}
}

func TestIsIgnorable(t *testing.T) {
	ignorable := []string{".gitignore", "main.js.map", "settings.json.tmp", ""}
	for _, name := range ignorable {
		if !IsIgnorable(name) {
			t.Errorf("IsIgnorable(%q) = false, want true", name)
		}
	}

	kept := []string{"main.js", "manifest.json", "en_US.lang", "map.json"}
	for _, name := range kept {
		if IsIgnorable(name) {
			t.Errorf("IsIgnorable(%q) = true, want false", name)
		}
	}
}
