package rubric

// remediations maps accessibility feature ids to the fix guidance attached
// when the check fails.
var remediations = map[string]string{
	"ax_captions": "Add burned-in captions to all spoken segments. Use a legible font " +
		"with a semi-transparent backing so they stay readable on small screens.",
	"ax_text_contrast": "Raise text contrast with drop shadows or dark overlays behind " +
		"on-screen text, and keep each overlay visible for at least two seconds.",
	"ax_no_flash": "Re-cut strobing sequences so no segment exceeds three flashes per second.",
}

// ApplyRemediations attaches fix guidance to undetected accessibility
// verdicts in place.  Passing checks and other sub-categories are left
// untouched.
func ApplyRemediations(verdicts []Verdict) {
	for i, v := range verdicts {
		if v.SubCategory != SubAccessibility || v.Detected {
			continue
		}
		if note, ok := remediations[v.FeatureID]; ok {
			verdicts[i].Remediation = note
		}
	}
}
