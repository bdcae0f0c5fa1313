package config

// DefaultFilePrefix matches the simulated haplotype files produced by the
// upstream simulation pipeline.
const DefaultFilePrefix = "true_hap."

// BuiltinTools returns the compiled-in tool definitions. A tools file
// loaded at startup may override entries by name or add new ones.
func BuiltinTools() map[string]Tool {
	return map[string]Tool{
		"iqtree": {
			Name:       "iqtree",
			Executable: "iqtree3",
			Args: []string{
				"-s", "{input}",
				"-m", "{model}",
				"-seed", "{seed}",
				"--prefix", "{prefix}",
				"-T", "{threads}",
			},
			DefaultModel: "GTR+G",
			OutputTag:    "iqtree3.{model}",
			MarkerSuffix: ".iqtree",
		},
		"cellphy": {
			Name:       "cellphy",
			Executable: "cellphy.sh",
			Args: []string{
				"FULL",
				"-r",
				"-z", "{seed}",
				"-p", "{prefix}",
				"-t", "{threads}",
				"-m", "{model}",
				"{input}",
			},
			DefaultModel: "GT16+FO+E",
			OutputTag:    "cellphy.{model}",
			// The legacy driving scripts checked an .iqtree-suffixed
			// marker for cellphy runs too, even though cellphy's own
			// report is .raxml.log-shaped. Kept as-is so resumption works
			// against directories those scripts populated; override
			// marker_suffix in a tools file to change it.
			MarkerSuffix: ".iqtree",
		},
	}
}
