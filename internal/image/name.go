package image

import "strings"

// Defender images always live under this namespace, tagged with the
// conventional "defender" prefix, e.g. twistlock/private:defender_32_01_128.
const (
	Namespace = "twistlock/private"
	TagPrefix = "defender"
)

// NormalizeTag strips exactly one occurrence of the conventional prefix
// before re-applying it, so both "_1_2_3" and "defender_1_2_3" normalize to
// "defender_1_2_3" without ever doubling the prefix.
func NormalizeTag(tag string) string {
	return TagPrefix + strings.TrimPrefix(tag, TagPrefix)
}

// LocalName is the deterministic name the resolved image is stored under.
func LocalName(tag string) string {
	return Namespace + ":" + NormalizeTag(tag)
}

// RegistryName is the remote reference pulled when resolving from a registry.
func RegistryName(registry, tag string) string {
	return strings.TrimSuffix(registry, "/") + "/" + LocalName(tag)
}
