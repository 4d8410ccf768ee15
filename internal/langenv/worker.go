package langenv

const workerBase = "resource:///org/codeberg/sigterm-de/mvsedit/workers/"

// Worker resources known to the editing engine.
const (
	AnalysisWorkerURL = workerBase + "analysis"
	EditorWorkerURL   = workerBase + "editor"
)

// ResolveWorker maps a worker label requested by the engine to the resource
// that serves it. Script-language labels get the analysis worker; everything
// else gets the general editing worker.
func ResolveWorker(label string) string {
	switch label {
	case LanguageID, "javascript", "typescript":
		return AnalysisWorkerURL
	default:
		return EditorWorkerURL
	}
}
