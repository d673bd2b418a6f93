//go:build integration

package tests

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

var (
	ErrDockerFailure       = errors.New("docker failure")
	ErrMissingInstanceName = errors.New("missing docker instance name")
)

const dockerTimeout = 120 * time.Second

// ConnectFunc connects to the application in the container, listening on port.
// It is retried with an exponential backoff, while the container is still starting up.
type ConnectFunc func(port int) error

// Container is a running docker container, shared by all tests requesting it by the same name.
type Container struct {
	pool     *dockertest.Pool
	resource *dockertest.Resource

	running int // how often the container got requested, it is purged when the last one is released
}

// Port returns the host port, the container's exposed port (e.g. "5432/tcp") is bound to.
func (c *Container) Port(id string) int {
	port, _ := strconv.Atoi(c.resource.GetPort(id))

	return port
}

// Release purges the container, once every test that requested it has released it.
func (c *Container) Release() error {
	muContainers.Lock()
	defer muContainers.Unlock()

	c.running--
	if c.running > 0 {
		return nil // some tests are still using it
	}

	delete(containers, c.resource.Container.Name)

	if err := c.pool.Purge(c.resource); err != nil {
		return fmt.Errorf("%w: could not purge resource: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	return nil
}

//nolint:gochecknoglobals // containers are shared, so parallel tests don't spin up a container each.
var (
	containers   = map[string]*Container{}
	muContainers = sync.Mutex{}
)

// StartContainer connects to the local docker service and starts a container for integration testing.
// If a container with the same runOptions.Name is already running, it is returned instead
// and all other options are ignored.
// Configure the container by setting the dockertest.RunOptions, the most important ones:
// - Repository:	is the dockerhub repo to pull, e.g. "postgres"
// - Tag:			is the tag to pull, e.g. 16
// - Env:			are the env variables to set for the container.
func StartContainer(runOptions *dockertest.RunOptions, port string, connect ConnectFunc) (*Container, error) {
	if runOptions == nil {
		return nil, fmt.Errorf("%w: invalid run options", ErrDockerFailure)
	}

	if runOptions.Name == "" {
		return nil, ErrMissingInstanceName
	}

	if connect == nil {
		return nil, fmt.Errorf("%w: invalid connect func", ErrDockerFailure)
	}

	muContainers.Lock()
	defer muContainers.Unlock()

	if c, ok := containers["/"+runOptions.Name]; ok {
		c.running++

		return c, nil
	}

	pool, err := dockertest.NewPool("") // uses a sensible default on windows (tcp/http) and linux/osx (socket)
	if err != nil {
		return nil, fmt.Errorf("%w: could not create new pool: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	if err = pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("%w: could not connect to docker: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.RunWithOptions(
		runOptions,
		func(config *docker.HostConfig) {
			config.AutoRemove = true // stopped containers go away by themselves
			config.RestartPolicy = docker.RestartPolicy{Name: "no", MaximumRetryCount: 0}
		})
	if err != nil {
		return nil, fmt.Errorf("%w: could not start resource: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	_ = resource.Expire(uint(dockerTimeout.Seconds())) // tell docker to hard kill the container

	container := &Container{pool: pool, resource: resource, running: 1}

	pool.MaxWait = dockerTimeout
	if err = pool.Retry(func() error { return connect(container.Port(port)) }); err != nil {
		_ = pool.Purge(resource)

		return nil, fmt.Errorf("%w: could not connect to container: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	containers[resource.Container.Name] = container

	return container, nil
}
