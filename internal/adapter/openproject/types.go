package openproject

import "worklog-sync/internal/domain"

// HAL shapes of the OpenProject API v3, reduced to the fields we read.

type halLink struct {
	Href  string `json:"href"`
	Title string `json:"title"`
}

type collection[T any] struct {
	Total    int `json:"total"`
	Count    int `json:"count"`
	Embedded struct {
		Elements []T `json:"elements"`
	} `json:"_embedded"`
}

type rawWorkPackage struct {
	ID      int64  `json:"id"`
	Subject string `json:"subject"`
}

func (r rawWorkPackage) domain() domain.RemoteTask {
	return domain.RemoteTask{ID: r.ID, Subject: r.Subject}
}

type rawTimeEntry struct {
	ID      int64  `json:"id"`
	SpentOn string `json:"spentOn"`
	Comment struct {
		Raw string `json:"raw"`
	} `json:"comment"`
	Links struct {
		WorkPackage halLink `json:"workPackage"`
		Activity    halLink `json:"activity"`
	} `json:"_links"`
}

func (r rawTimeEntry) domain() domain.TimeRecord {
	return domain.TimeRecord{
		ID:         r.ID,
		TaskID:     hrefID(r.Links.WorkPackage.Href),
		ActivityID: hrefID(r.Links.Activity.Href),
		SpentOn:    r.SpentOn,
		Comment:    r.Comment.Raw,
	}
}

type rawUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Login string `json:"login"`
	Email string `json:"email"`
}

func (r rawUser) domain() domain.User {
	return domain.User{ID: r.ID, Name: r.Name, Login: r.Login, Email: r.Email}
}

type rawProject struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	Links      struct {
		Status halLink `json:"status"`
	} `json:"_links"`
}

func (r rawProject) domain() domain.Project {
	return domain.Project{ID: r.ID, Name: r.Name, Identifier: r.Identifier, Status: r.Links.Status.Title}
}

type rawError struct {
	Message  string `json:"message"`
	Embedded struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"_embedded"`
}
