package metrics

import "fmt"

// ForBackend picks the recorder named by METRICS_BACKEND.
func ForBackend(backend string, cloudWatch, prom Recorder) (Recorder, error) {
	switch backend {
	case "cloudwatch":
		return cloudWatch, nil
	case "prometheus":
		return prom, nil
	case "both":
		return Multi{cloudWatch, prom}, nil
	case "", "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", backend)
	}
}
