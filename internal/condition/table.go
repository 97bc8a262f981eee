package condition

import (
	"fmt"
	"slices"

	"leaf-doctor/internal/features"
	"leaf-doctor/internal/types"
)

type vector = features.FeatureVector

// table is the fixed rule order. Earlier rules win ties.
var table = []Rule{
	{
		Rank:     1,
		ID:       "mold",
		Name:     "Powdery Mildew / Mold",
		Emoji:    "⚪",
		Severity: types.SeverityModerate,
		Clues:    "White powdery coating, fine texture noise, low saturation, surface uniformity loss",
		Base:     60,
		Guard:    func(v vector) bool { return v.WhiteRatio > 0.06 && !v.IsVariegated },
		Bonuses: []Predicate{
			func(v vector) bool { return v.WhiteRatio > 0.10 },
			func(v vector) bool { return v.TextureScore > 0.05 },
			func(v vector) bool { return v.LowSatPatchRatio > 0.15 },
		},
		Evidence: func(v vector) []string {
			return []string{
				fmt.Sprintf("White powdery substance on %d%% of leaf", pct(v.WhiteRatio)),
				"Dusty or fuzzy texture visible",
				"Appears to be surface-level growth",
			}
		},
		Advice:    "Improve air circulation immediately. Remove affected leaves. Apply baking soda solution (1 tsp/quart water) or sulfur fungicide.",
		Treatment: "Prune affected areas. Apply fungicide weekly. Use fans for air movement. Reduce humidity.",
		FollowUp:  "Is the mold white and powdery, or dark and fuzzy?",
	},
	{
		Rank:     2,
		ID:       "sunburn",
		Name:     "Sunburn / Scorching",
		Emoji:    "☀️",
		Severity: types.SeverityMild,
		Clues:    "Bleached/white patches, very high brightness, localized damage on sun-facing areas",
		Base:     55,
		Guard:    func(v vector) bool { return v.BleachedRatio > 0.05 && v.AvgBrightness > 0.55 },
		Bonuses: []Predicate{
			func(v vector) bool { return v.BleachedRatio > 0.10 },
			func(v vector) bool { return v.BrightPatchRatio > 0.20 },
			func(v vector) bool { return v.BrownRatio < 0.02 },
		},
		Evidence: func(v vector) []string {
			return []string{
				fmt.Sprintf("Bleached or faded patches covering %d%% of leaf", pct(v.BleachedRatio)),
				"Unusually bright/washed out areas",
				"Damage appears localized to sun-exposed side",
			}
		},
		Advice:    "Move plant to filtered light or morning sun only. Provide shade during peak hours (10am-4pm). Acclimate gradually to brighter light.",
		Treatment: "Relocate to shadier spot. Mist leaves to cool. Prune severely damaged leaves. Gradually increase light over weeks.",
		FollowUp:  "Was the plant recently moved to a sunnier location?",
	},
	{
		Rank:     3,
		ID:       "spots",
		Name:     "Leaf Spots / Lesions",
		Emoji:    "🟤",
		Severity: types.SeverityModerate,
		Clues:    "Brown/black spots with high contrast, localized damage, possible yellow halos",
		Base:     50,
		Guard:    func(v vector) bool { return v.BrownRatio > 0.02 },
		Bonuses: []Predicate{
			func(v vector) bool { return v.BrownRatio > 0.05 },
			func(v vector) bool { return v.EdgeRatio > 0.03 },
			func(v vector) bool { return v.GreenRatio > 0.30 },
		},
		Evidence: func(v vector) []string {
			return []string{
				fmt.Sprintf("Brown or rust-colored spots covering %d%% of leaf", pct(v.BrownRatio)),
				"Spots have distinct edges",
				fmt.Sprintf("Healthy green tissue (%d%%) surrounds affected areas", pct(v.GreenRatio)),
			}
		},
		Advice:    "Remove affected leaves immediately to prevent spread. Avoid overhead watering. Ensure good air circulation.",
		Treatment: "Prune infected leaves. Apply copper-based fungicide or neem oil every 7-10 days. Improve ventilation.",
		FollowUp:  "Are the spots spreading? Do they have a yellow halo around them?",
	},
	{
		Rank:     4,
		ID:       "dry",
		Name:     "Dry / Brittle / Crispy Leaves",
		Emoji:    "🍂",
		Severity: types.SeverityMild,
		Clues:    "Brown dry edges, high brightness brown areas, sharp edges, reduced moisture texture",
		Base:     45,
		Guard: func(v vector) bool {
			return v.CrispyRatio > 0.03 || (v.BrownRatio > 0.015 && v.AvgBrightness > 0.50)
		},
		Bonuses: []Predicate{
			func(v vector) bool { return v.CrispyRatio > 0.06 },
			func(v vector) bool { return v.AvgBrightness > 0.55 },
			func(v vector) bool { return v.AvgSaturation < 0.40 },
		},
		Evidence: func(vector) []string {
			return []string{
				"Dry, crispy brown edges or tips detected",
				"Leaf appears lighter than normal (dehydrated)",
				"Color looks washed out or faded",
			}
		},
		Advice:    "Increase watering frequency. Check if root-bound. Increase humidity with misting or pebble tray. Provide shade during peak sun.",
		Treatment: "Water deeply when top 2 inches dry. Mist leaves daily. Move to less windy location. Flush soil to remove salt buildup.",
		FollowUp:  "Are the edges brown and crispy, or is the entire leaf dry?",
	},
	{
		Rank:     5,
		ID:       "holes",
		Name:     "Chewed / Holed Leaves",
		Emoji:    "🕳️",
		Severity: types.SeverityMild,
		Clues:    "Missing leaf tissue, sharp black-to-green edges, negative space detection",
		Base:     50,
		Guard: func(v vector) bool {
			return v.BlackRatio > 0.03 && v.HoleEdgeRatio > 0.08 && v.GreenRatio < 0.50
		},
		Bonuses: []Predicate{
			func(v vector) bool { return v.BlackRatio > 0.06 },
			func(v vector) bool { return v.HoleEdgeRatio > 0.15 },
			func(v vector) bool { return v.GreenRatio > 0.25 },
		},
		Evidence: func(vector) []string {
			return []string{
				"Holes or missing tissue detected",
				"Edges appear chewed or torn",
				"Pattern suggests pest feeding damage",
			}
		},
		Advice:    "Inspect plant at night when pests are active. Hand-pick visible pests. Apply diatomaceous earth around base.",
		Treatment: "Remove pests manually. Apply Bt (Bacillus thuringiensis) for caterpillars or neem oil. Use netting if needed.",
		FollowUp:  "What size are the holes? Are they round (beetles) or irregular (caterpillars)?",
	},
	{
		Rank:     6,
		ID:       "wilting",
		Name:     "Wilting / Drooping",
		Emoji:    "🔴",
		Severity: types.SeverityHigh,
		Clues:    "Leaves hanging downward, deep structural shadows, green color preserved",
		Base:     55,
		Guard: func(v vector) bool {
			return v.ShadowScore > 0.01 && v.GreenRatio > 0.35 && v.BlackRatio > 0.04
		},
		Bonuses: []Predicate{
			func(v vector) bool { return v.ShadowScore > 0.02 },
			func(v vector) bool { return v.GreenRatio > 0.45 },
			func(v vector) bool { return v.GreenDistributionAsymmetry > 0.15 },
		},
		Evidence: func(v vector) []string {
			return []string{
				"Leaves appear droopy or hanging down",
				fmt.Sprintf("Green color still present (%d%%)", pct(v.GreenRatio)),
				"Loss of normal upright posture",
			}
		},
		Advice:    "Check soil moisture immediately. If dry, water deeply and provide shade. If wet, check for root rot.",
		Treatment: "For underwatering: Deep water and mist leaves. For overwatering: Remove from pot, trim rotten roots, repot with fresh soil.",
		FollowUp:  "Does the plant recover after watering, or does it stay wilted?",
	},
	{
		Rank:     7,
		ID:       "curling",
		Name:     "Leaf Curling / Distortion",
		Emoji:    "🌀",
		Severity: types.SeverityModerate,
		Clues:    "Shape deformation, asymmetric edges, unusual shadow patterns from twisted leaves",
		Base:     40,
		Guard: func(v vector) bool {
			return v.EdgeRatio > 0.08 && v.TextureScore > 0.06 && v.GreenRatio > 0.40 && v.BlackRatio < 0.06
		},
		Bonuses: []Predicate{
			func(v vector) bool { return v.ShadowScore > 0.015 },
			func(v vector) bool { return v.GreenDistributionAsymmetry > 0.10 },
		},
		Evidence: func(vector) []string {
			return []string{
				"Unusual leaf shape detected",
				"Twisted or curled edges visible",
				"Leaf still has healthy green color",
			}
		},
		Advice:    "Check for pests on leaf undersides. If pests found, treat immediately. If no pests, may be viral - isolate plant.",
		Treatment: "Treat for pests with neem oil. Apply balanced fertilizer. Remove severely affected leaves. Isolate if viral suspected.",
		FollowUp:  "Are the leaves curling upward (heat/light stress) or downward (overwatering)? Any visible pests?",
	},
	{
		Rank:     8,
		ID:       "chlorosis",
		Name:     "Chlorosis / Yellowing",
		Emoji:    "🟡",
		Severity: types.SeverityModerate,
		Clues:    "Yellow color shift, low saturation, high brightness, vein contrast",
		Base:     50,
		Guard:    func(v vector) bool { return v.YellowRatio > 0.08 && !v.IsVariegated },
		Bonuses: []Predicate{
			func(v vector) bool { return v.YellowRatio > 0.15 },
			func(v vector) bool { return v.AvgSaturation < 0.45 },
			hasVeinPattern,
		},
		Evidence: func(v vector) []string {
			pattern := "Uniform yellowing across leaf"
			if hasVeinPattern(v) {
				pattern = "Veins staying green while tissue yellows"
			}
			return []string{
				fmt.Sprintf("Yellow discoloration covering %d%% of leaf", pct(v.YellowRatio)),
				"Color appears pale or washed out",
				pattern,
			}
		},
		Advice:    "Check soil moisture. If waterlogged, improve drainage. If dry, water deeply. For nutrients, apply balanced fertilizer with nitrogen and iron.",
		Treatment: "Apply nitrogen-rich fertilizer (NPK 10-10-10) or iron chelate. Adjust watering. Prune yellow leaves to redirect energy.",
		FollowUp:  "Are yellow leaves on older growth (bottom = N deficiency) or new growth (top = iron deficiency)?",
	},
	{
		Rank:     9,
		ID:       "rootRot",
		Name:     "Root Rot / Soggy Soil",
		Emoji:    "💧",
		Severity: types.SeverityHigh,
		Clues:    "Wilting despite wet conditions, dark discoloration at stem base, yellow leaves combined with drooping",
		Base:     40,
		Guard: func(v vector) bool {
			return v.YellowRatio > 0.06 && v.ShadowScore > 0.01 && v.GreenRatio < 0.50
		},
		Bonuses: []Predicate{
			func(v vector) bool { return v.YellowRatio > 0.12 },
			func(v vector) bool { return v.ShadowScore > 0.02 },
			func(v vector) bool { return v.BrownRatio > 0.02 },
		},
		Evidence: func(v vector) []string {
			return []string{
				"Yellowing AND wilting occurring together",
				fmt.Sprintf("Yellow areas covering %d%% of leaf", pct(v.YellowRatio)),
				"Plant looks droopy despite moist soil",
			}
		},
		Advice:    "Stop watering immediately. Remove plant from pot. Trim all brown/mushy roots. Repot in fresh, well-draining soil.",
		Treatment: "Repot with fresh soil + perlite/sand. Reduce watering frequency significantly. Apply root stimulator. Consider fungicide drench.",
		FollowUp:  "How often were you watering? Does the pot have drainage holes?",
	},
}

func hasVeinPattern(v vector) bool { return v.VeinContrast > 0.02 }

// Rules returns a copy of the rule table in evaluation order.
func Rules() []Rule {
	return slices.Clone(table)
}

// Lookup returns the rule with the given id.
func Lookup(id string) (*Rule, bool) {
	for i := range table {
		if table[i].ID == id {
			return &table[i], true
		}
	}
	return nil, false
}
