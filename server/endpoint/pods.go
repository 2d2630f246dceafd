package endpoint

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/kubeping/kube"
)

// PodSource lists the classified pods of the configured namespace.
type PodSource interface {
	FetchPods(ctx context.Context) ([]kube.Pod, error)
}

// Pods returns a handler that queries the orchestration API and lists
// every pod with its readiness verdict. The query runs on the request's
// context, so a client disconnect abandons it.
func Pods(src PodSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		pods, err := src.FetchPods(c.Request.Context())
		if err != nil {
			RespondWithError(c, err)
			return
		}
		if pods == nil {
			pods = []kube.Pod{}
		}
		RespondOKWithMeta(c, pods, &Meta{Total: len(pods)})
	}
}
