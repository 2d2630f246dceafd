package main

import (
	"context"
	"time"

	"github.com/kbukum/kubeping/bootstrap"
	"github.com/kbukum/kubeping/discovery"
	"github.com/kbukum/kubeping/logger"
	"github.com/kbukum/kubeping/security"
)

// tokenCheck warns when the service-account token has expired or was issued
// for a namespace other than the one queried. A missing token is only
// logged at debug: outside a cluster the kubeconfig carries credentials.
func tokenCheck(tokenFile, namespace string, now func() time.Time, log *logger.Logger) bootstrap.Hook {
	return func(context.Context) error {
		if namespace == "" {
			return nil
		}
		tok, err := security.ReadToken(tokenFile)
		if err != nil {
			log.Debug("no service-account token", logger.Fields("file", tokenFile, logger.FieldError, err.Error()))
			return nil
		}
		if tok.Expired(now()) {
			log.Warn("service-account token expired", logger.Fields(
				"file", tokenFile,
				"expired_at", tok.ExpiresAt.Format(time.RFC3339),
			))
		}
		if tok.Namespace != "" && tok.Namespace != namespace {
			log.Warn("service-account token issued for another namespace", logger.Fields(
				logger.FieldNamespace, namespace,
				"token_namespace", tok.Namespace,
			))
		}
		return nil
	}
}

// readyReport logs the local endpoint and the outcome of the first round.
func readyReport(disc *discovery.Component, log *logger.Logger) bootstrap.Hook {
	return func(context.Context) error {
		fields := logger.Fields(logger.FieldPeer, disc.Self().String())
		if round, ok := disc.LastRound(); ok {
			fields = roundFields(round, fields)
		}
		log.Info("discovery ready", fields)
		return nil
	}
}

// finalRoundReport logs the last round before the components stop.
func finalRoundReport(disc *discovery.Component, log *logger.Logger) bootstrap.Hook {
	return func(context.Context) error {
		round, ok := disc.LastRound()
		if !ok {
			log.Info("no discovery round ran")
			return nil
		}
		log.Info("last discovery round", roundFields(round, logger.Fields()))
		return nil
	}
}

func roundFields(r discovery.Round, fields map[string]interface{}) map[string]interface{} {
	fields[logger.FieldRoundID] = r.ID.String()
	fields[logger.FieldPhase] = string(r.Phase)
	fields[logger.FieldEndpoints] = len(r.Endpoints)
	fields["dispatch_failures"] = r.DispatchFailures
	if r.Failed() {
		fields[logger.FieldError] = r.Message
	}
	return fields
}
