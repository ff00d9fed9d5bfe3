// Command extresolve-load-test creates Applications in a cluster and measures how long the
// operator takes to resolve them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
	"sigs.k8s.io/controller-runtime/pkg/client"

	binderyv1alpha1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/logger"
	"github.com/bayleafwalker/bindery-resolver/internal/manifest"
)

var (
	scheme = runtime.NewScheme()
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(binderyv1alpha1.AddToScheme(scheme))
}

func main() {
	var kubeconfig string
	if home := homedir.HomeDir(); home != "" {
		kubeconfig = filepath.Join(home, ".kube", "config")
	} else {
		kubeconfig = os.Getenv("KUBECONFIG")
	}
	flag.StringVar(&kubeconfig, "kubeconfig", kubeconfig, "absolute path to the kubeconfig file")

	var numApps int
	var namespace string
	var templatePath string
	var timeout time.Duration

	flag.IntVar(&numApps, "apps", 10, "Number of applications to create")
	flag.StringVar(&namespace, "namespace", "default", "Namespace to create applications in")
	flag.StringVar(&templatePath, "template", "", "Application manifest used as the template")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for each application")
	flag.Parse()

	flush, err := logger.Init("info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer flush()
	log := logger.Logger()

	loader, err := manifest.NewLoader()
	if err != nil {
		log.Fatalf("Error creating manifest loader: %v", err)
	}
	set, err := loader.LoadPaths(templatePath)
	if err != nil {
		log.Fatalf("Error loading template: %v", err)
	}
	template, err := set.Application()
	if err != nil {
		log.Fatalf("Error loading template %s: %v", templatePath, err)
	}

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		log.Fatalf("Error building kubeconfig: %v", err)
	}

	k8sClient, err := client.New(config, client.Options{Scheme: scheme})
	if err != nil {
		log.Fatalf("Error creating client: %v", err)
	}

	log.Infof("Starting load test: %d applications in namespace %s", numApps, namespace)

	var wg sync.WaitGroup
	start := time.Now()
	latencies := make(chan time.Duration, numApps)
	prefix := fmt.Sprintf("load-test-%d", time.Now().Unix())

	for i := 0; i < numApps; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			app := applicationFor(template, fmt.Sprintf("%s-%d", prefix, id), namespace)

			createStart := time.Now()
			if err := k8sClient.Create(context.Background(), app); err != nil {
				log.Errorf("Error creating application %s: %v", app.Name, err)
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			for {
				select {
				case <-ctx.Done():
					log.Warnf("Timeout waiting for application %s", app.Name)
					return
				case <-time.After(1 * time.Second):
					var current binderyv1alpha1.Application
					if err := k8sClient.Get(ctx, client.ObjectKeyFromObject(app), &current); err != nil {
						continue
					}
					if current.Status.ObservedGeneration < current.Generation {
						continue
					}
					switch current.Status.Phase {
					case "Resolved":
						latency := time.Since(createStart)
						latencies <- latency
						log.Debugf("Application %s resolved in %v", app.Name, latency)
						return
					case "Error":
						log.Errorf("Application %s failed: %s", app.Name, current.Status.Message)
						return
					}
				}
			}
		}(i)
	}

	wg.Wait()
	close(latencies)

	var all []time.Duration
	for l := range latencies {
		all = append(all, l)
	}
	log.Info(summarize(all, numApps, time.Since(start)))
}

// applicationFor copies the template's spec into a fresh object named name.
func applicationFor(template *binderyv1alpha1.Application, name, namespace string) *binderyv1alpha1.Application {
	app := &binderyv1alpha1.Application{}
	template.Spec.DeepCopyInto(&app.Spec)
	app.Name = name
	app.Namespace = namespace
	app.Labels = map[string]string{"build.bindery.dev/load-test": "true"}
	// Each application writes its own ConfigMap.
	app.Spec.OutputConfigMap = ""
	return app
}

func summarize(latencies []time.Duration, total int, elapsed time.Duration) string {
	if len(latencies) == 0 {
		return fmt.Sprintf("Load test completed in %v. No applications resolved.", elapsed)
	}
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	p95 := sorted[(len(sorted)*95+99)/100-1]
	return fmt.Sprintf("Load test completed in %v. Resolved %d/%d, avg %v, p95 %v, max %v.",
		elapsed, len(sorted), total, sum/time.Duration(len(sorted)), p95, sorted[len(sorted)-1])
}
