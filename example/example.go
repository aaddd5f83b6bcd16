package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/util/homedir"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/client"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/config"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/rest"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/selector"
	"github.com/thomashorrobin/SwiftkubeClient/pkg/watch"
)

type logger struct{}

func (l logger) Infof(format string, a ...interface{}) {
	log.Println(fmt.Sprintf(format, a...))
}

func main() {
	namespace := flag.String("namespace", rest.DefaultNamespaceName, "Namespace to operate in")
	app := flag.String("app", "nginx", "Value of the app label to select on")
	flag.Parse()

	kubeconfigPath := filepath.Join(homedir.HomeDir(), ".kube", "config")

	log.Printf("Connecting to cluster...")
	c, err := client.NewFromKubeconfig(
		config.KubeconfigSource{Path: kubeconfigPath},
		client.WithLogger(logger{}),
	)
	logAndExitOnError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	version, err := c.ServerVersion(ctx)
	logAndExitOnError(err)
	log.Printf("Server version: %s", version)

	pods := client.Pods(c)
	ns := rest.InNamespace(*namespace)

	log.Printf("Listing pods with app=%s...", *app)
	podList, err := pods.List(ctx, ns, rest.ListOptions{
		LabelSelector: []selector.Requirement{selector.Eq("app", *app)},
	})
	logAndExitOnError(err)
	for _, pod := range podList.Items {
		log.Printf("Pod: %s, Phase: %s", pod.Name, pod.Status.Phase)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	task, err := pods.Watch(groupCtx, ns, rest.ListOptions{
		ResourceVersion: podList.ResourceVersion(),
	}, client.TypedEventFunc(func(event client.TypedEvent[corev1.Pod]) {
		log.Printf("Event: %s, Pod: %s", event.Type, event.Object.Name)
	}))
	logAndExitOnError(err)

	group.Go(func() error {
		<-task.Done()
		return nil
	})

	if len(podList.Items) > 0 {
		name := podList.Items[0].Name
		group.Go(func() error {
			content, err := pods.GetLog(groupCtx, ns, name, rest.LogOptions{TailLines: int64Ptr(10)})
			if err != nil {
				return err
			}
			log.Printf("Last log lines of %s:\n%s", name, content)
			return nil
		})
	}

	time.AfterFunc(30*time.Second, task.Cancel)
	logAndExitOnError(group.Wait())

	if task.State() == watch.StateTerminated {
		log.Printf("Watch terminated")
	}
}

func logAndExitOnError(err error) {
	if err != nil {
		log.Printf("Exitting. An error occurred: %v", err)
		os.Exit(1)
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}
