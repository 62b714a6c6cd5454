package handlers

import "github.com/google/uuid"

// Canned development payloads, served only when services.fallback_to_mock is
// enabled and the upstream is unreachable. Shapes match the real services.

func newJobID() string {
	return uuid.New().String()
}

func mockWorkflows() map[string]interface{} {
	return map[string]interface{}{
		"workflows": []map[string]interface{}{
			{"id": "1", "name": "NDVI Alert Pipeline", "active": true, "createdAt": "2025-01-01T00:00:00.000Z", "updatedAt": "2025-01-10T00:00:00.000Z"},
			{"id": "2", "name": "Production Prediction", "active": true, "createdAt": "2025-01-01T00:00:00.000Z", "updatedAt": "2025-01-10T00:00:00.000Z"},
			{"id": "3", "name": "Pest Detection Alerts", "active": true, "createdAt": "2025-01-01T00:00:00.000Z", "updatedAt": "2025-01-10T00:00:00.000Z"},
			{"id": "4", "name": "Risk Notifications", "active": true, "createdAt": "2025-01-01T00:00:00.000Z", "updatedAt": "2025-01-10T00:00:00.000Z"},
		},
	}
}

func mockWebhookEndpoints() map[string]interface{} {
	return map[string]interface{}{
		"webhooks": []map[string]interface{}{
			{"workflowId": "1", "workflowName": "NDVI Alert Pipeline", "node": "Webhook", "path": "ndvi-alert", "method": "POST", "active": true},
			{"workflowId": "3", "workflowName": "Pest Detection Alerts", "node": "Webhook", "path": "pest-detected", "method": "POST", "active": true},
			{"workflowId": "4", "workflowName": "Risk Notifications", "node": "Webhook", "path": "risk-event", "method": "POST", "active": false},
		},
	}
}

func mockExecution(workflowID string) map[string]interface{} {
	return map[string]interface{}{
		"executionId": uuid.New().String(),
		"workflowId":  workflowID,
		"status":      "running",
		"startedAt":   "2025-01-12T00:00:00.000Z",
	}
}

func mockExecutions() map[string]interface{} {
	return map[string]interface{}{
		"executions": []map[string]interface{}{
			{"id": "exec-1", "workflowId": "1", "finished": true, "mode": "trigger", "startedAt": "2025-01-12T10:00:00.000Z", "stoppedAt": "2025-01-12T10:00:05.000Z", "status": "success"},
			{"id": "exec-2", "workflowId": "2", "finished": false, "mode": "webhook", "startedAt": "2025-01-12T10:05:00.000Z", "status": "running"},
		},
	}
}

func mockAnalysisJob(parcelID string, indices []string) map[string]interface{} {
	return map[string]interface{}{
		"jobId":    uuid.New().String(),
		"status":   "queued",
		"parcelId": parcelID,
		"indices":  indices,
		"message":  "Analysis job queued",
	}
}

func mockAnalysisResults(parcelID string) map[string]interface{} {
	return map[string]interface{}{
		"results": []map[string]interface{}{
			{"parcelId": parcelID, "date": "2025-01-10T00:00:00Z", "index": "NDVI", "value": 0.72, "cloudCover": 5.2},
			{"parcelId": parcelID, "date": "2025-01-05T00:00:00Z", "index": "NDVI", "value": 0.68, "cloudCover": 12.1},
			{"parcelId": parcelID, "date": "2025-01-01T00:00:00Z", "index": "NDVI", "value": 0.65, "cloudCover": 8.3},
		},
	}
}

func mockPredictionJob(predictionType, entityID string) map[string]interface{} {
	return map[string]interface{}{
		"jobId":    uuid.New().String(),
		"type":     predictionType,
		"entityId": entityID,
		"status":   "queued",
		"message":  "Prediction job queued",
	}
}

func mockPrediction(jobID string) map[string]interface{} {
	return map[string]interface{}{
		"id":       jobID,
		"type":     "production",
		"entityId": "urn:ngsi-ld:AgriParcel:parcel-001",
		"status":   "completed",
		"prediction": map[string]interface{}{
			"estimatedYield": 8500,
			"yieldUnit":      "kg/ha",
			"confidence":     0.85,
			"harvestWindow":  map[string]string{"start": "2025-09-15", "end": "2025-10-05"},
			"factors": []map[string]interface{}{
				{"name": "soil_moisture", "impact": "positive", "value": 0.72},
				{"name": "temperature", "impact": "neutral", "value": 0.45},
				{"name": "precipitation", "impact": "negative", "value": -0.12},
			},
		},
		"model":     "crop-yield-v2.1",
		"createdAt": "2025-01-12T10:00:00Z",
	}
}

func mockEntityPredictions(entityID string) map[string]interface{} {
	return map[string]interface{}{
		"predictions": []map[string]interface{}{
			{"id": "pred-1", "type": "production", "entityId": entityID, "prediction": map[string]interface{}{"estimatedYield": 8500}, "confidence": 0.85, "createdAt": "2025-01-12T10:00:00Z"},
			{"id": "pred-2", "type": "pest", "entityId": entityID, "prediction": map[string]interface{}{"pestType": "aphids", "probability": 0.32}, "confidence": 0.78, "createdAt": "2025-01-11T14:00:00Z"},
		},
	}
}

func mockPlugins() map[string]interface{} {
	return map[string]interface{}{
		"plugins": []map[string]interface{}{
			{"id": "crop-yield", "name": "Crop Yield Predictor", "version": "2.1.0", "type": "production", "description": "ML model for crop yield prediction based on environmental factors"},
			{"id": "pest-detection", "name": "Pest Detection", "version": "1.5.0", "type": "pest", "description": "Computer vision model for pest identification"},
			{"id": "disease-risk", "name": "Plant Disease Risk", "version": "1.2.0", "type": "disease", "description": "Disease outbreak risk assessment"},
		},
	}
}

func mockRobots() map[string]interface{} {
	return map[string]interface{}{
		"robots": []map[string]interface{}{
			{"id": "robot-001", "name": "Tractor Autonomo 1", "type": "tractor", "status": "idle", "batteryLevel": 85, "position": map[string]interface{}{"type": "Point", "coordinates": []float64{-2.9349, 43.2627}}, "lastSeen": "2025-01-12T10:00:00Z"},
			{"id": "robot-002", "name": "Drone Surveyor", "type": "drone", "status": "working", "batteryLevel": 62, "position": map[string]interface{}{"type": "Point", "coordinates": []float64{-2.9380, 43.2610}}, "currentMission": "mission-001", "lastSeen": "2025-01-12T10:05:00Z"},
			{"id": "robot-003", "name": "Sprayer Bot", "type": "sprayer", "status": "charging", "batteryLevel": 23, "position": map[string]interface{}{"type": "Point", "coordinates": []float64{-2.9320, 43.2645}}, "lastSeen": "2025-01-12T09:45:00Z"},
		},
	}
}

func mockRobot(robotID string) map[string]interface{} {
	return map[string]interface{}{
		"id":      robotID,
		"name":    "Robot",
		"type":    "tractor",
		"status":  "unknown",
		"message": "Robot data unavailable",
	}
}

func mockCommandAccepted(robotID, command string) map[string]interface{} {
	return map[string]interface{}{
		"robotId":  robotID,
		"command":  command,
		"accepted": true,
		"message":  "Command '" + command + "' sent (mock)",
	}
}

func mockMissions() []map[string]interface{} {
	return []map[string]interface{}{
		{"id": "mission-001", "name": "Survey Parcela Norte", "robotId": "robot-002", "type": "survey", "status": "running", "parcelIds": []string{"urn:ngsi-ld:AgriParcel:parcel-001"}, "progress": 65, "startedAt": "2025-01-12T09:30:00Z"},
		{"id": "mission-002", "name": "Spray Treatment", "robotId": "robot-003", "type": "spray", "status": "completed", "parcelIds": []string{"urn:ngsi-ld:AgriParcel:parcel-002"}, "progress": 100, "startedAt": "2025-01-12T07:00:00Z", "completedAt": "2025-01-12T09:15:00Z"},
		{"id": "mission-003", "name": "Soil Sampling", "robotId": "robot-001", "type": "survey", "status": "pending", "parcelIds": []string{"urn:ngsi-ld:AgriParcel:parcel-001", "urn:ngsi-ld:AgriParcel:parcel-002"}, "progress": 0},
	}
}

func mockMissionCreated(name, robotID, missionType string, parcelIDs []string) map[string]interface{} {
	return map[string]interface{}{
		"id":        uuid.New().String()[:8],
		"name":      name,
		"robotId":   robotID,
		"type":      missionType,
		"status":    "pending",
		"parcelIds": parcelIDs,
		"progress":  0,
		"message":   "Mission created (mock)",
	}
}

func mockParcels() map[string]interface{} {
	return map[string]interface{}{
		"parcels": []map[string]interface{}{
			{"id": 1, "odooId": 101, "name": "Parcela Norte", "area": 12.5, "areaUnit": "ha", "cropType": "wheat", "status": "active", "nkzEntityId": "urn:ngsi-ld:AgriParcel:parcel-001"},
			{"id": 2, "odooId": 102, "name": "Parcela Sur", "area": 8.3, "areaUnit": "ha", "cropType": "corn", "status": "active", "nkzEntityId": "urn:ngsi-ld:AgriParcel:parcel-002"},
		},
	}
}

func mockHarvests() []map[string]interface{} {
	return []map[string]interface{}{
		{"id": 1, "odooId": 201, "parcelId": 1, "parcelName": "Parcela Norte", "cropType": "wheat", "quantity": 45000, "quantityUnit": "kg", "quality": "Grade A", "harvestDate": "2024-09-15"},
		{"id": 2, "odooId": 202, "parcelId": 2, "parcelName": "Parcela Sur", "cropType": "corn", "quantity": 38000, "quantityUnit": "kg", "quality": "Grade B", "harvestDate": "2024-10-20"},
	}
}

func mockNDVIAlerts() []map[string]interface{} {
	return []map[string]interface{}{
		{"id": "alert-1", "parcelId": "urn:ngsi-ld:AgriParcel:parcel-001", "alertType": "low_ndvi", "severity": "medium", "currentValue": 0.28, "threshold": 0.3, "message": "NDVI below healthy threshold", "createdAt": "2025-01-12T08:00:00Z"},
		{"id": "alert-2", "parcelId": "urn:ngsi-ld:AgriParcel:parcel-003", "alertType": "rapid_decline", "severity": "high", "currentValue": -0.18, "threshold": 0.15, "message": "Rapid NDVI decline detected (18% drop in 5 days)", "createdAt": "2025-01-11T14:30:00Z"},
	}
}

func mockNotificationTemplates() map[string]interface{} {
	return map[string]interface{}{
		"templates": []map[string]interface{}{
			{"id": "ndvi-alert", "name": "NDVI Alert", "channels": []string{"email", "push"}, "subject": "Alerta de NDVI - {{parcelName}}", "variables": []string{"parcelName", "ndviValue", "threshold", "date"}},
			{"id": "pest-warning", "name": "Pest Warning", "channels": []string{"email", "push", "sms"}, "subject": "Aviso de Plaga - {{pestType}}", "variables": []string{"parcelName", "pestType", "probability", "recommendations"}},
			{"id": "harvest-ready", "name": "Harvest Ready", "channels": []string{"email", "push"}, "subject": "Cosecha Lista - {{parcelName}}", "variables": []string{"parcelName", "cropType", "estimatedYield", "harvestWindow"}},
			{"id": "robot-mission-complete", "name": "Robot Mission Complete", "channels": []string{"push", "webhook"}, "subject": "Mision Completada - {{robotName}}", "variables": []string{"robotName", "missionType", "parcelName", "duration"}},
			{"id": "risk-notification", "name": "Risk Notification", "channels": []string{"email", "push"}, "subject": "Alerta de Riesgo - {{riskName}}", "variables": []string{"riskName", "severity", "probability", "entityId"}},
		},
	}
}
