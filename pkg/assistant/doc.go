/*
Package assistant wires the project assistant conversation onto the router.

Every turn enters prompt, passes through check_safety, and either answers
with unsafe_response or lets decide_mode route the message by intent to one
of update_project_name, run_eligibility_check, upload_ifc_file,
upload_structural_notes or unknown_intent. All six leaves lead back to
prompt, so the graph is a closed loop and a run ends when the host stops it.

The classifiers and side effects are collaborators supplied by the host
through Collaborators. Only the safety and intent classifiers are required;
a missing optional collaborator makes its node answer with a canned response.
*/
package assistant
