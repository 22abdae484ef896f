package kserve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"model-version-registry/internal/config"
	"model-version-registry/internal/core/domain"
	output "model-version-registry/internal/core/ports/output"
)

var inferenceServiceGVR = schema.GroupVersionResource{
	Group:    "serving.kserve.io",
	Version:  "v1beta1",
	Resource: "inferenceservices",
}

const (
	labelModelVersionID      = "modelregistry.ai-platform/model-version-id"
	annotationModelResource  = "modelregistry.ai-platform/model-resource-name"
	annotationVersionAliases = "modelregistry.ai-platform/version-aliases"
)

type kserveClient struct {
	client    dynamic.Interface
	enabled   bool
	defaultNS string
}

// NewKServeClient creates a new KServe client adapter
func NewKServeClient(cfg *config.KubernetesConfig) (output.KServeClient, error) {
	if !cfg.Enabled {
		return &kserveClient{enabled: false}, nil
	}

	var restCfg *rest.Config
	var err error

	if cfg.InCluster {
		restCfg, err = rest.InClusterConfig()
	} else if cfg.KubeConfigPath != "" {
		restCfg, err = clientcmd.BuildConfigFromFlags("", cfg.KubeConfigPath)
	} else {
		// Try default kubeconfig location
		home, _ := os.UserHomeDir()
		kubeconfig := filepath.Join(home, ".kube", "config")
		restCfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	client, err := dynamic.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("create dynamic client: %w", err)
	}

	return NewKServeClientFromDynamic(client, cfg.DefaultNS), nil
}

// NewKServeClientFromDynamic wraps an existing dynamic client.
func NewKServeClientFromDynamic(client dynamic.Interface, defaultNS string) output.KServeClient {
	if defaultNS == "" {
		defaultNS = "model-serving"
	}
	return &kserveClient{
		client:    client,
		enabled:   true,
		defaultNS: defaultNS,
	}
}

func (c *kserveClient) IsAvailable() bool {
	return c.enabled
}

func (c *kserveClient) Deploy(
	ctx context.Context,
	namespace, name string,
	model *domain.RegisteredModel,
	version *domain.ModelVersion,
) (*output.KServeDeployment, error) {
	if namespace == "" {
		namespace = c.defaultNS
	}

	obj := c.buildInferenceServiceCR(name, model, version)

	created, err := c.client.Resource(inferenceServiceGVR).
		Namespace(namespace).
		Create(ctx, obj, metav1.CreateOptions{})
	if err != nil {
		if apierrors.IsAlreadyExists(err) {
			return nil, fmt.Errorf("%w: inferenceservice %s/%s", domain.ErrServingNameConflict, namespace, name)
		}
		return nil, fmt.Errorf("create kserve inferenceservice: %w", err)
	}

	log.WithFields(log.Fields{
		"namespace":  namespace,
		"name":       name,
		"model":      model.ResourceName,
		"version_id": version.VersionID,
	}).Debug("kserve inferenceservice created")

	status := c.parseStatus(created)
	return &output.KServeDeployment{
		ExternalID: string(created.GetUID()),
		URL:        status.URL,
		Ready:      status.Ready,
	}, nil
}

func (c *kserveClient) Undeploy(ctx context.Context, namespace, name string) error {
	if namespace == "" {
		namespace = c.defaultNS
	}

	err := c.client.Resource(inferenceServiceGVR).
		Namespace(namespace).
		Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		return fmt.Errorf("delete kserve inferenceservice: %w", err)
	}

	return nil
}

func (c *kserveClient) GetStatus(ctx context.Context, namespace, name string) (*output.KServeStatus, error) {
	if namespace == "" {
		namespace = c.defaultNS
	}

	obj, err := c.client.Resource(inferenceServiceGVR).
		Namespace(namespace).
		Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("get kserve inferenceservice: %w", err)
	}

	return c.parseStatus(obj), nil
}

func (c *kserveClient) buildInferenceServiceCR(
	name string,
	model *domain.RegisteredModel,
	version *domain.ModelVersion,
) *unstructured.Unstructured {
	labels := map[string]interface{}{
		labelModelVersionID: version.VersionID,
	}
	for k, v := range version.Labels {
		labels[k] = v
	}

	annotations := map[string]interface{}{
		annotationModelResource:  domain.VersionResourceName(model.ResourceName, version.VersionID),
		annotationVersionAliases: strings.Join(version.Aliases, ","),
	}

	// Build predictor spec
	modelSpec := map[string]interface{}{
		"storageUri": version.ArtifactURI,
	}
	if version.ModelFramework != "" {
		modelSpec["modelFormat"] = map[string]interface{}{
			"name": version.ModelFramework,
		}
	}

	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "serving.kserve.io/v1beta1",
			"kind":       "InferenceService",
			"metadata": map[string]interface{}{
				"name":        name,
				"labels":      labels,
				"annotations": annotations,
			},
			"spec": map[string]interface{}{
				"predictor": map[string]interface{}{
					"model": modelSpec,
				},
			},
		},
	}
}

func (c *kserveClient) parseStatus(obj *unstructured.Unstructured) *output.KServeStatus {
	status := &output.KServeStatus{}

	statusMap, found, _ := unstructured.NestedMap(obj.Object, "status")
	if !found {
		return status
	}

	status.URL, _, _ = unstructured.NestedString(statusMap, "url")

	// Check conditions for ready state
	conditions, found, _ := unstructured.NestedSlice(statusMap, "conditions")
	if found {
		for _, cond := range conditions {
			condMap, ok := cond.(map[string]interface{})
			if !ok {
				continue
			}
			condType, _ := condMap["type"].(string)
			condStatus, _ := condMap["status"].(string)

			if condType == "Ready" {
				status.Ready = condStatus == "True"
				if condStatus == "False" {
					if msg, ok := condMap["message"].(string); ok {
						status.Error = msg
					}
				}
				break
			}
		}
	}

	return status
}

// Ensure interface compliance
var _ output.KServeClient = (*kserveClient)(nil)
