// package clustertest uses `kind` (https://kind.sigs.k8s.io/) to create an in-docker
// testing cluster. Because creating a new cluster can be a little bit slow,
// we lazily create a new cluster that is re-used across all users of the library
// (assuming they are in the same machine).
//
// Since the cluster is shared, make sure your test scope their work on the cluster
// to their particular namespace
//
// If CLUSTERTEST_KUBECONFIG_PATH is set it uses that cluster instead of
// creating one. Cluster tests only run when KUBESCOPE_CLUSTER_TESTS is set;
// call SkipUnlessEnabled first.
package clustertest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.jetpack.io/kubescope/pkg/reaktor"
	"go.jetpack.io/kubescope/pkg/reaktor/komponents"
	"go.jetpack.io/kubescope/pkg/reaktor/kubeconfig"
	utilrand "k8s.io/apimachinery/pkg/util/rand"
	"sigs.k8s.io/kind/pkg/cluster"
)

// Environment variable used to specify a pre-existing cluster.
const CLUSTERTEST_KUBECONFIG_PATH = "CLUSTERTEST_KUBECONFIG_PATH"

// Environment variable that enables tests against a real cluster.
const KUBESCOPE_CLUSTER_TESTS = "KUBESCOPE_CLUSTER_TESTS"

// Tests that don't need a special image, should just use this default image to
// avoid any issues like rate throttling.
func DefaultImage() string {
	return "busybox:1.36"
}

func SkipUnlessEnabled(t testing.TB) {
	t.Helper()
	if os.Getenv(KUBESCOPE_CLUSTER_TESTS) == "" {
		t.Skipf("set %s to run tests against a cluster", KUBESCOPE_CLUSTER_TESTS)
	}
}

type _testCluster struct {
	sync.Mutex
	created    bool
	kubeConfig string
}

// Singleton: we create the test cluster once and share the instance.
var testCluster = &_testCluster{
	created: false,
}

const testClusterName = "kubescope-clustertest"

// Convenience function that gets a client builder for the test cluster, or
// panics.
func ClientBuilder() kubeconfig.ClientBuilder {
	envvar := os.Getenv(CLUSTERTEST_KUBECONFIG_PATH)
	if envvar != "" {
		return kubeconfig.NewClientBuilder(kubeconfig.Source{Path: envvar}, kubeconfig.Flags{})
	}

	cluster, err := getTestCluster()
	if err != nil {
		panic(err)
	}

	return kubeconfig.NewClientBuilder(
		kubeconfig.Source{YAML: cluster.kubeConfig},
		kubeconfig.Flags{Insecure: true},
	)
}

// Klient returns a Reaktor for the test cluster, or panics.
func Klient() *reaktor.Reaktor {
	klient, err := reaktor.WithClientBuilder(ClientBuilder())
	if err != nil {
		panic(err)
	}
	return klient
}

func MustInitTestCluster() {
	if os.Getenv(CLUSTERTEST_KUBECONFIG_PATH) != "" {
		return // Nothing to initialize if using a pre-specified cluster
	}

	if _, err := getTestCluster(); err != nil {
		panic(err)
	}
}

func getTestCluster() (*_testCluster, error) { // Keep small since it locks
	testCluster.Lock()
	defer testCluster.Unlock()

	if testCluster.created {
		return testCluster, nil
	}

	provider := cluster.NewProvider()
	if err := ensureTestClusterExists(provider, testClusterName); err != nil {
		return nil, errors.WithStack(err)
	}

	kubeConfig, err := provider.KubeConfig(testClusterName, false /* internal */)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// When the tests themselves run inside docker, 127.0.0.1 is the test
	// container rather than the kind node. host.docker.internal is not in the
	// cluster's serving certificate, hence the insecure flag in ClientBuilder.
	if os.Getenv("CLUSTERTEST_DOCKER_HOST") != "" {
		kubeConfig = strings.ReplaceAll(kubeConfig, "server: https://127.0.0.1", "server: https://host.docker.internal")
	}
	testCluster.kubeConfig = kubeConfig
	testCluster.created = true // Wait until the very end before setting to true
	return testCluster, nil
}

func ensureTestClusterExists(provider *cluster.Provider, clusterName string) error {
	exists, err := doesTestClusterExist(provider, clusterName)
	if err != nil {
		return errors.WithStack(err)
	}

	if !exists {
		err = provider.Create(
			clusterName,
			cluster.CreateWithWaitForReady(60*time.Second),
		)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func doesTestClusterExist(provider *cluster.Provider, clusterName string) (bool, error) {
	clusters, err := provider.List()
	if err != nil {
		return false, errors.WithStack(err)
	}
	return lo.Contains(clusters, clusterName), nil
}

// Namespace creates a randomly named namespace for a single test. The
// returned cleanup function deletes it and waits until it is gone.
func Namespace(
	ctx context.Context,
	klient *reaktor.Reaktor,
) (*komponents.Namespace, func() error, error) {
	ns := &komponents.Namespace{
		Name:   fmt.Sprintf("%s-%s", "clustertest", utilrand.String(10)),
		Labels: map[string]string{"app.kubernetes.io/managed-by": reaktor.DefaultFieldManager},
	}
	cleanupFunc := func() error {
		err := klient.DeleteByResource(ctx, ns)
		if err != nil && !reaktor.IsNotFound(err) {
			return errors.WithStack(err)
		}
		return waitUntilGone(ctx, klient, ns)
	}

	_, err := klient.GetByResource(ctx, ns)
	if !reaktor.IsNotFound(err) {
		if err == nil {
			err = errors.Errorf("namespace %s already exists", ns.Name)
		}
		return ns, cleanupFunc, errors.WithStack(err)
	}

	if _, err = klient.Apply(ctx, ns); err != nil {
		return ns, cleanupFunc, errors.WithStack(err)
	}
	return ns, cleanupFunc, nil
}

func waitUntilGone(ctx context.Context, klient *reaktor.Reaktor, r reaktor.Resource) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 2 * time.Minute

	return backoff.Retry(func() error {
		_, err := klient.GetByResource(ctx, r)
		switch {
		case reaktor.IsNotFound(err):
			return nil
		case err != nil:
			return backoff.Permanent(err)
		default:
			return errors.New("still terminating")
		}
	}, backoff.WithContext(policy, ctx))
}
