// Package security holds the credentials handling used to talk to the
// orchestration API: TLS material, bearer tokens and secret masking.
//
//	cfg := security.TLSConfig{
//	    CAFile:       security.DefaultCAFile,
//	    CertFile:     "/etc/kubeping/client.crt",
//	    KeyFile:      "/etc/kubeping/client.key",
//	    KeyPassword:  os.Getenv("KUBERNETES_CLIENT_KEY_PASSWORD"),
//	    KeyAlgorithm: security.KeyAlgorithmRSA,
//	}
//	tlsConfig, err := cfg.Build(log)
package security
