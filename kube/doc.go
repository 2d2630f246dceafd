// Package kube turns the orchestration API's pod inventory into classified
// pods.
//
// A Querier obtains PodRecords either through client-go or through a raw
// HTTP fetch of the pods endpoint. Classify then filters them by namespace
// and attaches a readiness verdict and a rolling-update group to each.
//
//	q, err := kube.NewQuerier(cfg, log)
//	records, err := q.Query(ctx, "prod", "app=cache")
//	pods := kube.Classify(records, "prod")
package kube
