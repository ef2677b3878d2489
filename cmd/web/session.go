package main

type sessionKey string

const workflowSessionKey = sessionKey("workflow")
