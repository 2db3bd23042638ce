package services

import "siteguard/models"

// Query keys mirror the client's cache keys so a response can tell the
// client exactly what to refetch.
func keyWorkspaces() models.QueryKey { return models.QueryKey{"workspaces"} }

func keyWorkspace(id string) models.QueryKey { return models.QueryKey{"workspace", id} }

func keyResources(id string) models.QueryKey { return models.QueryKey{"resources", id} }

func keyResourceStatistics(id string) models.QueryKey {
	return models.QueryKey{"resource-statistics", id}
}

func keyResource(id, resourceID string) models.QueryKey {
	return models.QueryKey{"resource", id, resourceID}
}

func keyArchitecture(id string) models.QueryKey { return models.QueryKey{"architecture", id} }

func keySafetyReports(id string) models.QueryKey { return models.QueryKey{"safety-reports", id} }

// WorkspaceKeys is invalidated by workspace create, update, delete,
// progress and status changes.
func WorkspaceKeys(id string) []models.QueryKey {
	return []models.QueryKey{keyWorkspaces(), keyWorkspace(id)}
}

// ResourceKeys is invalidated by any inventory change. A non-empty
// resourceID adds the single-item key.
func ResourceKeys(id, resourceID string) []models.QueryKey {
	keys := []models.QueryKey{keyResources(id), keyResourceStatistics(id), keyWorkspaces()}
	if resourceID != "" {
		keys = append(keys, keyResource(id, resourceID))
	}
	return keys
}

func ArchitectureKeys(id string) []models.QueryKey {
	return []models.QueryKey{keyArchitecture(id), keyWorkspaces()}
}

func SafetyReportKeys(id string) []models.QueryKey {
	return []models.QueryKey{keySafetyReports(id), keyWorkspaces(), keyWorkspace(id)}
}
